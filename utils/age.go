package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// AgeStringToYears converts a DICOM age string (AS), such as "045Y" or
// "006M", into whole years.
func AgeStringToYears(age string) (int, error) {
	age = strings.TrimSpace(age)
	if len(age) < 2 {
		return 0, fmt.Errorf("invalid age string %q", age)
	}
	n, err := strconv.Atoi(age[:len(age)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid age string %q", age)
	}
	switch strings.ToUpper(age[len(age)-1:]) {
	case "Y":
		return n, nil
	case "M":
		return n / 12, nil
	case "W":
		return n * 7 / 365, nil
	case "D":
		return n / 365, nil
	}
	return 0, fmt.Errorf("invalid age unit in %q", age)
}

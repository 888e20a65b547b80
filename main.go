package main

import "dcmtag2table/cmd"

func main() {
	cmd.Execute()
}

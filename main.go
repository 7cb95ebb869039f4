package main

import "github.com/khanhnv2901/moodscan/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}

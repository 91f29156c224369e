// Command gorewrite runs lossless rewrite recipes over Go packages.
package main

import "github.com/mouse-blink/gorewrite/cmd"

func main() {
	cmd.Execute()
}

// main.go
package main

import "github.com/aceteam-ai/wuscore/cmd"

func main() {
	cmd.Execute()
}

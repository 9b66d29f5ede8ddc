// Command tripcore is the trip-planning CLI.
package main

import "tripcore/internal/cli"

func main() {
	cli.Execute()
}

package main

import "github.com/benjamonnguyen/focusmomo/cmd/focusctl/arg"

func main() {
	arg.Execute()
}

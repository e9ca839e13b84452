/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/farman-pharma/apiserver/cmd"

func main() {
	cmd.Execute()
}

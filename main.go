package main

import "github.com/Pat-Reen/FitnessChat/cmd"

func main() {
	cmd.Execute()
}

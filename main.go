package main

import "github.com/iksnae/deepfake-detect/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/Madhav-Gupta-28/o2herbal-backend-go/cmd"

func main() {
	cmd.Execute()
}

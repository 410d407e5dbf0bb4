package main

import "github.com/lhuanyu/Sumeru/cmd/sumeru"

func main() {
	sumeru.Execute()
}

package main

import (
	"github.com/metrics-sample/cmd/agent"
)

func main() {
	agent.Execute()
}

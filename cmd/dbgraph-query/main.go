// cmd/dbgraph-query/main.go
package main

import (
	"dbgraph/internal/appshell"
	"dbgraph/internal/queryapp"
)

func main() { appshell.Main(queryapp.RunContext) }

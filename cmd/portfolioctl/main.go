// Package main 是 portfolioctl 命令行工具的入口。
package main

import "portfolio-go/internal/cli"

func main() {
	cli.Execute()
}

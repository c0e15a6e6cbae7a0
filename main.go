/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/monmacllcapp/daily-progress-tracker-sub000/cmd"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/IRENA-FlexTool/FlexTool/cmd"
	"github.com/IRENA-FlexTool/FlexTool/core/monitoring"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			monitoring.CaptureException(fmt.Errorf("panic: %v", r), monitoring.Tags{"module": "main"})
			monitoring.Flush(2 * time.Second)
			panic(r)
		}
	}()
	err := cmd.Execute()
	monitoring.Flush(2 * time.Second)
	if err != nil {
		os.Exit(1)
	}
}

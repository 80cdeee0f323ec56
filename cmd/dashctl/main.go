package main

import (
    "os"

    "github.com/HamedShams/agile-dashboard/cmd/dashctl/cmd"
)

func main() {
    if err := cmd.Execute(); err != nil {
        os.Exit(1)
    }
}

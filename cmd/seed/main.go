package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/ridehail-backend/config"
	"github.com/ikkim/ridehail-backend/internal/db"
	"github.com/ikkim/ridehail-backend/internal/seed"
	"github.com/xuri/excelize/v2"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX file:", err)
	}
	defer f.Close()

	wb, err := seed.ReadWorkbook(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Admins: %d, drivers: %d, vehicles: %d, documents: %d\n",
		len(wb.Admins), len(wb.Drivers), len(wb.Vehicles), len(wb.Documents))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	summary, err := seed.Import(context.Background(), db.GetDB(), wb)
	if err != nil {
		log.Fatal("Failed to import workbook:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Pending verifications created: %d\n", summary.Documents)
}

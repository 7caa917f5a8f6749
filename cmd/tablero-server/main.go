package main

import (
	"log"
	"os"

	"github.com/hvila/tablero/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/tablero?sslmode=disable"
	}

	storageDir := os.Getenv("TABLERO_STORAGE_DIR")
	if storageDir == "" {
		storageDir = "./storage"
	}

	srv, err := server.New(server.Options{
		DatabaseURL: dbURL,
		StorageDir:  storageDir,
		PublicURL:   os.Getenv("TABLERO_PUBLIC_URL"),
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	log.Printf("Tablero server starting on :%s", port)
	if err := srv.Start(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

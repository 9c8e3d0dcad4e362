package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/gpexpress/backend/internal/config"
	"github.com/gpexpress/backend/internal/db"
	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/repository"
	"github.com/joho/godotenv"
)

type seedAnnonce struct {
	FullName        string
	OriginCity      string
	DestinationCity string
	DepartureDate   string
}

var annonces = []seedAnnonce{
	{"Mame Diarra Ndiaye", "Paris", "Dakar", "2025-10-02"},
	{"Abdoulaye Sow", "Paris Charles-de-Gaulle", "Dakar Yoff", "2025-10-02"},
	{"Fatou Bintou Fall", "Bruxelles", "Abidjan", "2025-10-05"},
	{"Cheikh Tidiane Diop", "Lyon Part-Dieu", "Bamako", "2025-10-07"},
	{"Aïssatou Barry", "Marseille", "Conakry", "2025-10-10"},
	{"Moussa Traoré", "Paris", "Bamako", "2025-10-12"},
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := gdb.AutoMigrate(&model.Annonce{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	repo := repository.NewAnnonceRepository(gdb)
	for _, a := range annonces {
		annonce := &model.Annonce{
			UserID:          "seed-gp-" + uuid.NewString()[:8],
			FullName:        a.FullName,
			OriginCity:      a.OriginCity,
			DestinationCity: a.DestinationCity,
			DepartureDate:   a.DepartureDate,
		}
		if err := repo.Create(ctx, annonce); err != nil {
			return fmt.Errorf("insert annonce %q: %w", a.FullName, err)
		}
		log.Printf("seeded annonce %d: %s %s -> %s (%s)", annonce.ID, a.FullName, a.OriginCity, a.DestinationCity, a.DepartureDate)
	}
	return nil
}

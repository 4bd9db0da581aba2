package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"writeit/internal/editor"
	"writeit/internal/store/sqlstore"

	"github.com/brianvoe/gofakeit/v6"
)

var fontFamilies = []string{"Arial", "Courier", "Georgia", "Helvetica", "Times New Roman", "Verdana"}

var fontSizes = []int{10, 14, 16, 18, 24}

func main() {
	driver := flag.String("driver", "sqlite3", "database driver: sqlite3, postgres or pgx")
	conn := flag.String("conn", "./writeit.db", "database connection string")
	count := flag.Int("n", 25, "number of notes to create")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	store, err := sqlstore.New(*driver, *conn, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ws, err := editor.NewWorkspace(store)
	if err != nil {
		log.Fatalf("Could not load settings: %v", err)
	}

	gofakeit.Seed(*seed)
	rng := rand.New(rand.NewSource(*seed))

	inserted := 0
	for i := 0; i < *count; i++ {
		s := ws.NewNote()
		if err := writeNote(s, rng); err != nil {
			log.Printf("Error writing note: %v", err)
			ws.Close(s.ID())
			continue
		}

		title := strings.TrimSuffix(gofakeit.Sentence(rng.Intn(4)+2), ".")
		if err := s.Save(title); err != nil {
			log.Printf("Error saving note: %v", err)
			ws.Close(s.ID())
			continue
		}
		ws.Close(s.ID())
		inserted++
	}

	fmt.Printf("Inserted %d notes\n", inserted)
}

// writeNote types a few paragraphs with random typing-mode changes and
// then formats a random selection.
func writeNote(s *editor.Session, rng *rand.Rand) error {
	offset := 0
	paragraphs := rng.Intn(4) + 1
	for p := 0; p < paragraphs; p++ {
		if rng.Intn(3) == 0 {
			if err := s.ToggleBold(); err != nil {
				return err
			}
		}
		if rng.Intn(4) == 0 {
			if err := s.ToggleItalic(); err != nil {
				return err
			}
		}

		para := gofakeit.Paragraph(1, rng.Intn(4)+2, 12, " ") + "\n\n"
		if err := s.InsertText(offset, para); err != nil {
			return err
		}
		offset += len([]rune(para))
	}

	start := rng.Intn(offset)
	end := start + rng.Intn(offset-start) + 1
	if err := s.Select(start, end); err != nil {
		return err
	}
	switch rng.Intn(3) {
	case 0:
		if err := s.SetFontSize(fontSizes[rng.Intn(len(fontSizes))]); err != nil {
			return err
		}
	case 1:
		if err := s.SetFontFamily(fontFamilies[rng.Intn(len(fontFamilies))]); err != nil {
			return err
		}
	default:
		if err := s.ToggleUnderline(); err != nil {
			return err
		}
	}
	s.ClearSelection()
	return nil
}

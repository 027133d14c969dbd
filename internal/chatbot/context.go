package chatbot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	maxProjects    = 5
	maxSkills      = 15
	maxExperiences = 3
	maxFormations  = 3
)

// snapshot is the raw portfolio content the bot answers from, read fresh
// on every message.
type snapshot struct {
	Settings     store.Record
	Projects     []store.Record
	Skills       []store.Record
	Testimonials []store.Record
	Experiences  []store.Record
	Formations   []store.Record
	Languages    []store.Record
	Interests    []store.Record
}

// loadSnapshot fans out over the eight content collections. A failed read
// contributes its zero value instead of failing the snapshot; the bot
// answers from whatever it could load.
func loadSnapshot(ctx context.Context, st store.Store) *snapshot {
	snap := &snapshot{}

	var wg sync.WaitGroup
	wg.Add(8)

	go func() {
		defer wg.Done()
		rec, err := st.Get(ctx, "settings", models.SettingsID)
		if err != nil {
			log.Printf("Warning: chatbot snapshot missing settings: %v", err)
			return
		}
		snap.Settings = rec
	}()

	collect := func(collection string, dst *[]store.Record) {
		defer wg.Done()
		records, err := st.List(ctx, collection)
		if err != nil {
			log.Printf("Warning: chatbot snapshot missing %s: %v", collection, err)
			return
		}
		*dst = records
	}

	go collect("projects", &snap.Projects)
	go collect("skills", &snap.Skills)
	go collect("testimonials", &snap.Testimonials)
	go collect("experiences", &snap.Experiences)
	go collect("formations", &snap.Formations)
	go collect("languages", &snap.Languages)
	go collect("interests", &snap.Interests)

	wg.Wait()
	return snap
}

// botContext is the derived, language-resolved view the intent templates
// interpolate.
type botContext struct {
	Language     string
	Name         string
	Email        string
	Skills       string
	Projects     string
	Experiences  string
	Formations   string
	Languages    string
	Interests    string
	Testimonials string
	About        string
}

func deriveContext(snap *snapshot, language string) *botContext {
	bc := &botContext{Language: language}

	profile := subDocument(snap.Settings, "profile")
	bc.Name = localized(profile, "name", language)
	if bc.Name == "" {
		bc.Name = "le propriétaire de ce portfolio"
		if language == "en" {
			bc.Name = "the owner of this portfolio"
		}
	}
	bc.Email = str(profile, "email")
	bc.About = localized(profile, "bio", language)

	skills := make([]string, 0, maxSkills)
	for _, rec := range snap.Skills {
		if len(skills) == maxSkills {
			break
		}
		if name := rec.Str("name"); name != "" {
			skills = append(skills, name)
		}
	}
	bc.Skills = strings.Join(skills, ", ")

	projects := make([]string, 0, maxProjects)
	for _, rec := range snap.Projects {
		if len(projects) == maxProjects {
			break
		}
		if title := rec.Str("title"); title != "" {
			projects = append(projects, title)
		}
	}
	bc.Projects = strings.Join(projects, ", ")

	bc.Experiences = summarizeEntries(snap.Experiences, language, maxExperiences)
	bc.Formations = summarizeEntries(snap.Formations, language, maxFormations)

	languages := make([]string, 0, len(snap.Languages))
	for _, rec := range snap.Languages {
		if name := localized(rec, "name", language); name != "" {
			languages = append(languages, name)
		}
	}
	bc.Languages = strings.Join(languages, ", ")

	interests := make([]string, 0, len(snap.Interests))
	for _, rec := range snap.Interests {
		if name := localized(rec, "name", language); name != "" {
			interests = append(interests, name)
		}
	}
	bc.Interests = strings.Join(interests, ", ")

	testimonials := make([]string, 0, len(snap.Testimonials))
	for _, rec := range snap.Testimonials {
		if name := rec.Str("name"); name != "" {
			testimonials = append(testimonials, name)
		}
	}
	bc.Testimonials = strings.Join(testimonials, ", ")

	return bc
}

// summarizeEntries renders "title chez organization" lines for the most
// recent timeline entries.
func summarizeEntries(records []store.Record, language string, limit int) string {
	at := " chez "
	if language == "en" {
		at = " at "
	}

	lines := make([]string, 0, limit)
	for _, rec := range records {
		if len(lines) == limit {
			break
		}
		title := localized(rec, "title", language)
		if title == "" {
			continue
		}
		if org := rec.Str("organization"); org != "" {
			title += at + org
		}
		lines = append(lines, title)
	}
	return strings.Join(lines, "; ")
}

// localized picks the Fr/En variant of a bilingual field, falling back to
// the other language when the requested one is empty.
func localized(doc map[string]any, field, language string) string {
	first, second := field+"Fr", field+"En"
	if language == "en" {
		first, second = second, first
	}
	if v := str(doc, first); v != "" {
		return v
	}
	return str(doc, second)
}

func str(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	switch v := doc[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// subDocument unwraps a nested document from either JSON or BSON decoding.
func subDocument(rec store.Record, key string) map[string]any {
	if rec == nil {
		return nil
	}
	switch m := rec[key].(type) {
	case map[string]any:
		return m
	case bson.M:
		return m
	default:
		return nil
	}
}

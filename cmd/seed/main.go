// Package main seeds a catalog database with the control vocabularies a
// fresh deployment needs: location types, entity types, identifier
// schemes and common datatypes. It can also create an API account.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/storage/sqlite"
	"github.com/mscwg/catalog/internal/catalog/users"
	"github.com/mscwg/catalog/internal/platform/config"
)

const seedUserID = "seed$catalog"

type seedEntry struct {
	table mscid.Table
	doc   map[string]any
}

var controlVocabularies = []seedEntry{
	{mscid.TableLocation, map[string]any{"id": "website", "label": "website"}},
	{mscid.TableLocation, map[string]any{"id": "document", "label": "document"}},
	{mscid.TableLocation, map[string]any{"id": "RDA-MIG", "label": "RDA MIG Schema"}},
	{mscid.TableLocation, map[string]any{"id": "DTD", "label": "XML/SGML DTD"}},
	{mscid.TableLocation, map[string]any{"id": "XSD", "label": "XML Schema"}},
	{mscid.TableLocation, map[string]any{"id": "RDFS", "label": "RDF Schema"}},
	{mscid.TableLocation, map[string]any{"id": "JSON", "label": "JSON Schema"}},
	{mscid.TableLocation, map[string]any{"id": "email", "label": "email"}},

	{mscid.TableType, map[string]any{"id": "standards-body", "label": "standards body", "applies": []any{"organization"}}},
	{mscid.TableType, map[string]any{"id": "archive", "label": "archive", "applies": []any{"organization"}}},
	{mscid.TableType, map[string]any{"id": "professional-group", "label": "professional group", "applies": []any{"organization"}}},
	{mscid.TableType, map[string]any{"id": "coordination-group", "label": "coordination group", "applies": []any{"organization"}}},
	{mscid.TableType, map[string]any{"id": "cooperative-project", "label": "cooperative project", "applies": []any{"organization"}}},
	{mscid.TableType, map[string]any{"id": "web-application", "label": "web application", "applies": []any{"tool"}}},
	{mscid.TableType, map[string]any{"id": "web-service", "label": "web service", "applies": []any{"tool"}}},
	{mscid.TableType, map[string]any{"id": "terminal", "label": "terminal application", "applies": []any{"tool"}}},
	{mscid.TableType, map[string]any{"id": "graphical", "label": "graphical application", "applies": []any{"tool"}}},

	{mscid.TableIDScheme, map[string]any{"id": "doi", "label": "DOI"}},
	{mscid.TableIDScheme, map[string]any{"id": "handle", "label": "Handle"}},
	{mscid.TableIDScheme, map[string]any{"id": "ror", "label": "ROR"}},
	{mscid.TableIDScheme, map[string]any{"id": "orcid", "label": "ORCID"}},

	{mscid.TableDatatype, map[string]any{"label": "Dataset"}},
	{mscid.TableDatatype, map[string]any{"label": "Image"}},
	{mscid.TableDatatype, map[string]any{"label": "Text"}},
	{mscid.TableDatatype, map[string]any{"label": "Software"}},
}

type seedConfig struct {
	DBPath string `env:"MSC_DB_PATH" envDefault:"catalog.db"`
}

func main() {
	log.SetPrefix("[SEED] ")

	apiUser := flag.String("api-user", "", "create an API account with this name")
	apiPassword := flag.String("api-password", "", "password for the API account")
	flag.Parse()

	var cfg seedConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open store at %s: %v", cfg.DBPath, err)
	}
	defer store.Close()

	ctx := context.Background()
	created := 0
	for _, entry := range controlVocabularies {
		exists, err := vocabExists(ctx, store, entry)
		if err != nil {
			config.Exitf("check %s vocabulary: %v", entry.table, err)
		}
		if exists {
			continue
		}
		id, err := store.CreateRecord(ctx, entry.table, entry.doc, "", seedUserID)
		if err != nil {
			config.Exitf("seed %s: %v", entry.table, err)
		}
		log.Printf("created %s (%s)", id, entry.doc["label"])
		created++
	}
	log.Printf("seeded %d vocabulary records into %s", created, cfg.DBPath)

	if *apiUser != "" {
		if err := createAPIAccount(ctx, store, *apiUser, *apiPassword); err != nil {
			config.Exitf("create API account: %v", err)
		}
		log.Printf("created API account %q", *apiUser)
	}
}

// vocabExists reports whether a vocabulary record with the same label is
// already present, so reruns stay idempotent.
func vocabExists(ctx context.Context, store *sqlite.Store, entry seedEntry) (bool, error) {
	recs, err := store.ListRecords(ctx, entry.table)
	if err != nil {
		return false, err
	}
	label, _ := entry.doc["label"].(string)
	for _, rec := range recs {
		if existing, _ := rec.Data["label"].(string); existing == label {
			return true, nil
		}
	}
	return false, nil
}

func createAPIAccount(ctx context.Context, store *sqlite.Store, name, password string) error {
	if password == "" {
		return fmt.Errorf("api-password is required with api-user")
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return err
	}
	return store.SaveAPIUser(ctx, users.APIUser{
		UserID:       "api$" + name,
		Name:         name,
		PasswordHash: hash,
	})
}

package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
)

type Config struct {
	Port    string `json:"port"`
	DBURL   string `json:"dbUrl"`   // пусто = in-memory
	SeedDir string `json:"seedDir"` // папка с YAML-каталогами, пусто = без сидов
}

func def() Config {
	return Config{
		Port:    "8080",
		DBURL:   "",
		SeedDir: "",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// LoadWithPath читает JSON по указанному пути (или по -config), потом
// применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	return loadWithArgs(jsonPath, os.Args[1:])
}

// loadWithArgs регистрирует флаги на собственном FlagSet и парсит их
// ровно один раз: -config просто меняет, какой JSON читаем, без
// повторной регистрации флагов.
func loadWithArgs(jsonPath string, args []string) Config {
	fs := flag.NewFlagSet("udc", flag.ContinueOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", "", "HTTP port")
	db := fs.String("db", "", "Postgres URL (empty = in-memory)")
	seed := fs.String("seed", "", "Path to YAML seed catalogs (empty = none)")
	_ = fs.Parse(args)

	// JSON (если файл существует)
	cfg := def()
	if st, err := os.Stat(*configPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(*configPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("UDC_PORT", cfg.Port)
	cfg.DBURL = getenv("UDC_DB_URL", cfg.DBURL)
	cfg.SeedDir = getenv("UDC_SEED_DIR", cfg.SeedDir)

	// Flags overrides — только явно переданные
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = strings.TrimSpace(*port)
		case "db":
			cfg.DBURL = strings.TrimSpace(*db)
		case "seed":
			cfg.SeedDir = strings.TrimSpace(*seed)
		}
	})

	return cfg
}

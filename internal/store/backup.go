package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Backup copies both documents to timestamped files next to the
// originals and returns the created paths. Restoring is a manual
// operation: copy a backup over the live file.
func (s *Store) Backup() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := time.Now().Format("20060102_150405")
	var created []string
	for _, name := range []string{productURLsFile, foodDataFile} {
		src := filepath.Join(s.dir, name)
		dst := filepath.Join(s.dir, fmt.Sprintf("%s_backup_%s.json", trimJSON(name), stamp))

		b, err := os.ReadFile(src)
		if err != nil {
			return created, fmt.Errorf("backup read %s: %w", name, err)
		}
		if err := os.WriteFile(dst, b, 0o644); err != nil {
			return created, fmt.Errorf("backup write %s: %w", dst, err)
		}
		created = append(created, dst)
	}

	zap.S().Infow("backup created", "files", created)
	return created, nil
}

func trimJSON(name string) string {
	return name[:len(name)-len(".json")]
}

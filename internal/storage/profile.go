/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"competencematrix/internal/domain"
)

// BackupsDirName is the directory next to a profile file that holds its backups.
const BackupsDirName = "backups"

const backupStamp = "20060102-150405.000"

// LoadProfileFile reads and validates a profile JSON file.
// If the file cannot be read or is invalid, the latest backup is tried.
func LoadProfileFile(path string) (domain.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		p, berr := loadLatestBackup(path)
		if berr != nil {
			return domain.Profile{}, fmt.Errorf("open profile: %w; backup attempt: %v", err, berr)
		}
		return p, nil
	}
	p, derr := DecodeProfile(b)
	if derr != nil {
		bp, berr := loadLatestBackup(path)
		if berr != nil {
			return domain.Profile{}, fmt.Errorf("parse profile: %w; backup attempt: %v", derr, berr)
		}
		return bp, nil
	}
	return p, nil
}

// SaveProfileFile writes p to path with transactional semantics and a timestamped
// backup of the previous file (if present).
func SaveProfileFile(path string, p domain.Profile) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("profile path is required")
	}
	data, err := EncodeProfile(p)
	if err != nil {
		return err
	}
	if err := ValidateProfileJSON(data); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure profile dir: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		bpath := filepath.Join(dir, BackupsDirName, fmt.Sprintf("%s.%s.bak", filepath.Base(path), time.Now().Format(backupStamp)))
		if cerr := copyFile(path, bpath); cerr != nil {
			return fmt.Errorf("backup current profile: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp profile: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace profile: %w", rerr)
	}
	return nil
}

// Backups lists the backups of the profile file at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func loadLatestBackup(path string) (domain.Profile, error) {
	candidates, err := Backups(path)
	if err != nil {
		return domain.Profile{}, err
	}
	if len(candidates) == 0 {
		return domain.Profile{}, errors.New("no backups found")
	}
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("read latest backup: %w", err)
	}
	p, err := DecodeProfile(b)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("parse latest backup: %w", err)
	}
	return p, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

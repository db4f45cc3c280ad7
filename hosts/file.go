package hosts

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ReadFrom streams r line by line into s. Each line is visible in the store
// as soon as it has been read.
func ReadFrom(ctx context.Context, r io.Reader, s *Store) error {
	reader := bufio.NewReader(r)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			s.Append(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read hosts: %w", err)
		}
	}
}

// ReadFile streams the file at path into s.
func ReadFile(ctx context.Context, path string, s *Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open hosts file: %w", err)
	}
	defer f.Close()

	if err := ReadFrom(ctx, f, s); err != nil {
		return err
	}

	st := s.Stats()
	logrus.Infof("loaded %s: %d lines, %d mappings, %d comments", path, st.Total, st.Mappings, st.Comments)
	return nil
}

// LoadFile reads the hosts file at path into a new Store.
func LoadFile(ctx context.Context, path string) (*Store, error) {
	s := NewStore()
	if err := ReadFile(ctx, path, s); err != nil {
		return nil, err
	}
	return s, nil
}

package utils

import (
	"fmt"
	"time"
)

// ParseDateTime aceita tanto datas simples (2006-01-02) quanto RFC3339
func ParseDateTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("data vazia")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("data inválida %q: use 2006-01-02 ou RFC3339", value)
	}

	return t.UTC(), nil
}

package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// MMDB reads country codes from a MaxMind or DB-IP country database.
type MMDB struct {
	reader *maxminddb.Reader
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

func OpenMMDB(path string) (*MMDB, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database %s: %w", path, err)
	}
	return &MMDB{reader: reader}, nil
}

func (m *MMDB) Country(ip net.IP) (string, error) {
	var record countryRecord
	if err := m.reader.Lookup(ip, &record); err != nil {
		return "", fmt.Errorf("geo database lookup failed: %w", err)
	}
	return record.Country.ISOCode, nil
}

func (m *MMDB) Close() error {
	return m.reader.Close()
}

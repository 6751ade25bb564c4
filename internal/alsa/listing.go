package alsa

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// listingRe matches one device line of `aplay -l`:
//
//	card 0: PCH [HDA Intel PCH], device 0: ALC256 Analog [ALC256 Analog]
var listingRe = regexp.MustCompile(`^card (\d+): (\S+) \[(.+?)\], device (\d+): (.+) \[(.+?)\]`)

// ListingEntry is one card/device pair from the card listing.
type ListingEntry struct {
	Card         string
	CardName     string
	CardLongName string
	Device       string
	DeviceName   string
	Description  string
}

// ParseListing extracts card/device entries in listing order.
// Headers, subdevice lines and anything else not matching are skipped.
func ParseListing(r io.Reader) ([]ListingEntry, error) {
	var entries []ListingEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := listingRe.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		entries = append(entries, ListingEntry{
			Card:         m[1],
			CardName:     m[2],
			CardLongName: m[3],
			Device:       m[4],
			DeviceName:   m[5],
			Description:  m[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// HWAddress returns the ALSA hw address of the entry's device.
func (e ListingEntry) HWAddress() string {
	return "hw:" + e.Card + "," + e.Device
}

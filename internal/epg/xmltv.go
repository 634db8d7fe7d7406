package epg

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/teamarr/teamarr/internal/models"
)

// xmltvTimeLayout is the XMLTV timestamp format.
const xmltvTimeLayout = "20060102150405 -0700"

type xmltvTV struct {
	XMLName       xml.Name         `xml:"tv"`
	GeneratorName string           `xml:"generator-info-name,attr"`
	Channels      []xmltvChannel   `xml:"channel"`
	Programmes    []xmltvProgramme `xml:"programme"`
}

type xmltvChannel struct {
	ID          string      `xml:"id,attr"`
	DisplayName []string    `xml:"display-name"`
	Icon        *xmltvIcon  `xml:"icon,omitempty"`
}

type xmltvIcon struct {
	Src string `xml:"src,attr"`
}

type xmltvProgramme struct {
	Start    string     `xml:"start,attr"`
	Stop     string     `xml:"stop,attr"`
	Channel  string     `xml:"channel,attr"`
	Title    string     `xml:"title"`
	SubTitle string     `xml:"sub-title,omitempty"`
	Desc     string     `xml:"desc,omitempty"`
	Category string     `xml:"category,omitempty"`
	Icon     *xmltvIcon `xml:"icon,omitempty"`
}

// ChannelListing is one output channel with its programme timeline.
type ChannelListing struct {
	TvgID      string
	Name       string
	LogoURL    string
	Category   string
	Programmes []models.ProcessedProgramme
}

// WriteXMLTV serializes channel listings as an XMLTV document.
func WriteXMLTV(w io.Writer, listings []ChannelListing) error {
	doc := xmltvTV{GeneratorName: "teamarr"}
	for _, l := range listings {
		ch := xmltvChannel{ID: l.TvgID, DisplayName: []string{l.Name}}
		if l.LogoURL != "" {
			ch.Icon = &xmltvIcon{Src: l.LogoURL}
		}
		doc.Channels = append(doc.Channels, ch)
		for _, p := range l.Programmes {
			prog := xmltvProgramme{
				Start:    p.StartDatetime.UTC().Format(xmltvTimeLayout),
				Stop:     p.EndDatetime.UTC().Format(xmltvTimeLayout),
				Channel:  l.TvgID,
				Title:    p.Title,
				SubTitle: p.Subtitle,
				Desc:     p.Description,
				Category: categoryFor(l, p),
			}
			if p.ProgramArtURL != "" {
				prog.Icon = &xmltvIcon{Src: p.ProgramArtURL}
			}
			doc.Programmes = append(doc.Programmes, prog)
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Flush()
}

// categoryFor resolves the programme category late, from the variables
// snapshot taken at render time, so guide grouping survives template edits.
func categoryFor(l ChannelListing, p models.ProcessedProgramme) string {
	if cat, ok := p.Variables["gracenote_category"]; ok && cat != "" {
		return cat
	}
	return l.Category
}

// FilterWindow drops programmes entirely outside [start, end) and clamps
// ones that straddle the edges.
func FilterWindow(programmes []models.ProcessedProgramme, start, end time.Time) []models.ProcessedProgramme {
	var out []models.ProcessedProgramme
	for _, p := range programmes {
		if !p.EndDatetime.After(start) || !p.StartDatetime.Before(end) {
			continue
		}
		if p.StartDatetime.Before(start) {
			p.StartDatetime = start
		}
		if p.EndDatetime.After(end) {
			p.EndDatetime = end
		}
		out = append(out, p)
	}
	return out
}

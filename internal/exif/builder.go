package exif

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Field is the semantic tag of a directive. It is carried for logging only;
// every directive is retried on its own regardless of its field.
type Field string

const (
	FieldDateOriginal Field = "date_original"
	FieldCreateDate   Field = "create_date"
	FieldModifyDate   Field = "modify_date"
	FieldMake         Field = "make"
	FieldModel        Field = "model"
	FieldGPSLatitude  Field = "gps_latitude"
	FieldGPSLatRef    Field = "gps_latitude_ref"
	FieldGPSLongitude Field = "gps_longitude"
	FieldGPSLonRef    Field = "gps_longitude_ref"
	FieldPlace        Field = "place"
	FieldDescription  Field = "description"
	FieldKeyword      Field = "keyword"
	FieldSubject      Field = "subject"
)

// Directive is one atomic exiftool write instruction.
type Directive struct {
	Field Field
	Arg   string
}

func (d Directive) String() string { return d.Arg }

// Plan is the output of Build.
type Plan struct {
	Directives []Directive
	// Warnings describe fields that were present but could not be used.
	Warnings []string
}

// Empty reports whether the plan has nothing to write.
func (p Plan) Empty() bool { return len(p.Directives) == 0 }

// Args returns the directive arguments in order.
func (p Plan) Args() []string {
	args := make([]string, len(p.Directives))
	for i, d := range p.Directives {
		args[i] = d.Arg
	}
	return args
}

// ExifDateLayout is exiftool's textual date syntax.
const ExifDateLayout = "2006:01:02 15:04:05"

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006:01:02 15:04:05Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	ExifDateLayout,
	"2006-01-02T15:04",
}

// Build converts metadata into the ordered directive list for one file.
// Order is fixed: date, camera, location, description, then keywords sorted
// lexicographically, so identical metadata always yields identical arguments.
func Build(meta Metadata, kind FileKind) Plan {
	var plan Plan
	plan.addDates(meta.DateTime, kind)
	plan.addCamera(meta.Camera)
	plan.addLocation(meta.GPS, meta.Location)
	plan.addDescription(meta.Description, kind)
	plan.addKeywords(meta.People, meta.Albums)
	return plan
}

func (p *Plan) add(field Field, tag, value string) {
	p.Directives = append(p.Directives, Directive{Field: field, Arg: "-" + tag + "=" + value})
}

func (p *Plan) warn(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}

func (p *Plan) addDates(raw Timestamp, kind FileKind) {
	value := strings.TrimSpace(string(raw))
	if value == "" {
		return
	}
	formatted, err := FormatTimestamp(value)
	if err != nil {
		p.warn("datetime %q ignored: %v", value, err)
		return
	}
	if kind == KindImage {
		p.add(FieldDateOriginal, "DateTimeOriginal", formatted)
	}
	p.add(FieldCreateDate, "CreateDate", formatted)
	p.add(FieldModifyDate, "ModifyDate", formatted)
}

// maxEpochSeconds is 9999-12-31T23:59:59Z, the last instant exiftool's
// four-digit year can hold.
const maxEpochSeconds = 253402300799

// FormatTimestamp parses a normalized timestamp and renders it in exiftool
// syntax. A zone offset is kept when the input carries one; epoch seconds are
// rendered in UTC.
func FormatTimestamp(value string) (string, error) {
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if math.IsNaN(secs) || secs < 0 || secs > maxEpochSeconds {
			return "", fmt.Errorf("epoch %q out of range", value)
		}
		return time.Unix(int64(secs), 0).UTC().Format(ExifDateLayout + "-07:00"), nil
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(ExifDateLayout + "-07:00"), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(ExifDateLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp format")
}

func (p *Plan) addCamera(camera string) {
	camera = strings.TrimSpace(camera)
	if camera == "" {
		return
	}
	maker, model, found := strings.Cut(camera, " ")
	model = strings.TrimSpace(model)
	if !found || model == "" {
		p.add(FieldModel, "Model", maker)
		return
	}
	p.add(FieldMake, "Make", maker)
	p.add(FieldModel, "Model", model)
}

func (p *Plan) addLocation(gps *Coordinates, place string) {
	if lat, lon, ok := p.validCoordinates(gps); ok {
		p.add(FieldGPSLatitude, "GPSLatitude", formatDegrees(lat))
		p.add(FieldGPSLatRef, "GPSLatitudeRef", LatitudeRef(lat))
		p.add(FieldGPSLongitude, "GPSLongitude", formatDegrees(lon))
		p.add(FieldGPSLonRef, "GPSLongitudeRef", LongitudeRef(lon))
		return
	}
	place = strings.TrimSpace(place)
	if place == "" {
		return
	}
	p.add(FieldPlace, "XMP:Location", place)
	p.add(FieldPlace, "IPTC:Sub-location", place)
}

func (p *Plan) validCoordinates(gps *Coordinates) (float64, float64, bool) {
	if gps == nil || (gps.Latitude == nil && gps.Longitude == nil) {
		return 0, 0, false
	}
	if gps.Latitude == nil || gps.Longitude == nil {
		p.warn("gps ignored: latitude and longitude are both required")
		return 0, 0, false
	}
	lat, lon := *gps.Latitude, *gps.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		p.warn("gps ignored: coordinates %v,%v out of range", lat, lon)
		return 0, 0, false
	}
	return lat, lon, true
}

// LatitudeRef returns N for zero or positive latitude and S otherwise.
func LatitudeRef(lat float64) string {
	if lat < 0 {
		return "S"
	}
	return "N"
}

// LongitudeRef returns E for zero or positive longitude and W otherwise.
func LongitudeRef(lon float64) string {
	if lon < 0 {
		return "W"
	}
	return "E"
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
}

func (p *Plan) addDescription(description string, kind FileKind) {
	description = strings.TrimSpace(description)
	if description == "" {
		return
	}
	if kind == KindVideo {
		p.add(FieldDescription, "QuickTime:Description", description)
	} else {
		p.add(FieldDescription, "ImageDescription", description)
	}
	p.add(FieldDescription, "XMP:Description", description)
}

func (p *Plan) addKeywords(sources ...[]string) {
	for _, keyword := range Keywords(sources...) {
		p.Directives = append(p.Directives,
			Directive{Field: FieldKeyword, Arg: "-Keywords+=" + keyword},
			Directive{Field: FieldSubject, Arg: "-XMP:Subject+=" + keyword},
		)
	}
}

// Keywords unions the given lists, trims and NFC-normalizes each entry, drops
// blanks and duplicates, and returns the result sorted.
func Keywords(sources ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range sources {
		for _, raw := range list {
			keyword := norm.NFC.String(strings.TrimSpace(raw))
			if keyword == "" {
				continue
			}
			if _, dup := seen[keyword]; dup {
				continue
			}
			seen[keyword] = struct{}{}
			out = append(out, keyword)
		}
	}
	sort.Strings(out)
	return out
}

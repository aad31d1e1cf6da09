package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bogem/id3v2/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/danielemils/new-alice/internal/fileutil"
	"github.com/danielemils/new-alice/internal/logging"
	"github.com/danielemils/new-alice/internal/services"
)

// ErrNotRepairable is returned when a frame's text does not survive the
// ISO-8859-1 round trip.
var ErrNotRepairable = errors.New("text is not mis-decoded utf-8")

// Passes returns how many repair passes a file needs. Mixing in noise runs the
// file through SoX one extra time, which mangles the tag once more.
func Passes(noise bool) int {
	if noise {
		return 2
	}
	return 1
}

// Normalizer repairs tags and delivers files.
type Normalizer struct {
	logger *slog.Logger
}

// New constructs a Normalizer.
func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logging.NewComponentLogger(logger, "tags")}
}

// Deliver repairs the tag of src in place when dst is an mp3, then copies src
// to dst. A repair of passes > 1 that fails is retried with a single pass. Any
// repair failure is logged and the file is delivered unchanged.
func (n *Normalizer) Deliver(ctx context.Context, src, dst string, passes int) error {
	logger := logging.WithContext(ctx, n.logger)
	if strings.EqualFold(filepath.Ext(dst), ".mp3") {
		err := Repair(src, passes)
		if err != nil && passes > 1 {
			logger.Debug("multi-pass tag repair failed, retrying once", logging.Int("passes", passes), logging.Error(err))
			err = Repair(src, 1)
		}
		if err != nil {
			logging.WarnWithContext(logger, "tag repair failed", "tag_repair_skipped",
				logging.String("path", dst),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file delivered with its tags as sox wrote them"),
			)
		}
	}
	if err := fileutil.DeliverFile(src, dst); err != nil {
		return services.Wrap(services.ErrTransient, "deliver", "copy", filepath.Base(dst), err)
	}
	logger.Info("file delivered",
		logging.String("path", dst),
		logging.String(logging.FieldEventType, "file_delivered"),
	)
	return nil
}

// Repair applies the text transform passes times to every text frame of the
// tag at path and saves it as ID3v2.4. Nothing is written unless every pass
// succeeds. Files without frames are left alone.
func Repair(path string, passes int) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tag: %w", err)
	}
	defer tag.Close()

	if !tag.HasFrames() {
		return nil
	}
	for range max(passes, 1) {
		if err := repairFrames(tag); err != nil {
			return err
		}
	}
	tag.SetVersion(4)
	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

func repairFrames(tag *id3v2.Tag) error {
	all := tag.AllFrames()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	rewritten := make(map[string][]id3v2.Framer, len(all))
	for _, id := range ids {
		for _, frame := range all[id] {
			fixed, err := repairFrame(frame)
			if err != nil {
				return fmt.Errorf("frame %s: %w", id, err)
			}
			rewritten[id] = append(rewritten[id], fixed)
		}
	}
	for _, id := range ids {
		tag.DeleteFrames(id)
		for _, frame := range rewritten[id] {
			tag.AddFrame(id, frame)
		}
	}
	return nil
}

func repairFrame(frame id3v2.Framer) (id3v2.Framer, error) {
	var err error
	switch f := frame.(type) {
	case id3v2.TextFrame:
		if f.Text, err = Recode(f.Text); err != nil {
			return nil, err
		}
		f.Encoding = id3v2.EncodingUTF8
		return f, nil
	case id3v2.CommentFrame:
		if f.Description, err = Recode(f.Description); err != nil {
			return nil, err
		}
		if f.Text, err = Recode(f.Text); err != nil {
			return nil, err
		}
		f.Encoding = id3v2.EncodingUTF8
		return f, nil
	case id3v2.UserDefinedTextFrame:
		if f.Description, err = Recode(f.Description); err != nil {
			return nil, err
		}
		if f.Value, err = Recode(f.Value); err != nil {
			return nil, err
		}
		f.Encoding = id3v2.EncodingUTF8
		return f, nil
	default:
		return frame, nil
	}
}

// Recode reinterprets each rune of s as an ISO-8859-1 byte and decodes the
// result as UTF-8. "CafÃ©" becomes "Café".
func Recode(s string) (string, error) {
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotRepairable, err)
	}
	if !utf8.ValidString(raw) {
		return "", ErrNotRepairable
	}
	return raw, nil
}

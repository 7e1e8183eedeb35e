package plan

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// DefaultActorTag is the id attribute written on the actor container.
const DefaultActorTag = "boss"

type xmlAny struct {
	XMLName xml.Name
}

type xmlActions struct {
	XMLName xml.Name `xml:"actions"`
	T       string   `xml:"t,attr"`
	NPC     []xmlNPC `xml:"npc"`
	Unknown []xmlAny `xml:",any"`
}

type xmlNPC struct {
	ID        string         `xml:"id,attr"`
	MicroStep []xmlMicroStep `xml:"microStep"`
	Parry     []xmlParry     `xml:"parry"`
	Strike    []xmlStrike    `xml:"strike"`
	Why       []string       `xml:"why"`
	Unknown   []xmlAny       `xml:",any"`
}

type xmlMicroStep struct {
	DX    string `xml:"dx,attr"`
	DurMs string `xml:"durMs,attr"`
}

type xmlParry struct {
	WhenMs string `xml:"whenMs,attr"`
}

type xmlStrike struct {
	Kind   string `xml:"kind,attr"`
	WhenMs string `xml:"whenMs,attr"`
}

// Decode parses plan text into a Plan. Unknown tags, duplicated
// directives, missing attributes and out-of-contract values are errors.
// A well-formed plan without directives returns ErrEmptyPlan.
func Decode(text string) (Plan, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Plan{}, fmt.Errorf("%w: no text", ErrMalformed)
	}

	root, err := decodeRoot(text)
	if err != nil {
		return Plan{}, err
	}
	if len(root.Unknown) > 0 {
		return Plan{}, fmt.Errorf("%w: <%s> in <actions>", ErrUnknownTag, root.Unknown[0].XMLName.Local)
	}

	var p Plan
	if root.T != "" {
		ts, err := strconv.ParseInt(root.T, 10, 64)
		if err != nil {
			return Plan{}, fmt.Errorf("%w: actions t=%q", ErrMalformed, root.T)
		}
		p.Timestamp = ts
	}

	switch len(root.NPC) {
	case 0:
		return Plan{}, fmt.Errorf("%w: <npc>", ErrMissingTag)
	case 1:
	default:
		return Plan{}, fmt.Errorf("%w: %d <npc> containers", ErrMalformed, len(root.NPC))
	}

	npc := root.NPC[0]
	if len(npc.Unknown) > 0 {
		return Plan{}, fmt.Errorf("%w: <%s> in <npc>", ErrUnknownTag, npc.Unknown[0].XMLName.Local)
	}
	if len(npc.MicroStep) > 1 {
		return Plan{}, fmt.Errorf("%w: %s", ErrDuplicateDirective, KindMicroStep)
	}
	if len(npc.Parry) > 1 {
		return Plan{}, fmt.Errorf("%w: %s", ErrDuplicateDirective, KindParryWindow)
	}
	if len(npc.Strike) > 1 {
		return Plan{}, fmt.Errorf("%w: %s", ErrDuplicateDirective, KindStrike)
	}
	if len(npc.Why) > 1 {
		return Plan{}, fmt.Errorf("%w: why", ErrDuplicateDirective)
	}

	if len(npc.MicroStep) == 1 {
		ms := npc.MicroStep[0]
		dx, err := parseFloatAttr(KindMicroStep, "dx", ms.DX)
		if err != nil {
			return Plan{}, err
		}
		dur, err := parseMsAttr(KindMicroStep, "durMs", ms.DurMs)
		if err != nil {
			return Plan{}, err
		}
		p.Directives = append(p.Directives, MicroStep{DX: dx, Duration: dur})
	}

	if len(npc.Parry) == 1 {
		delay, err := parseMsAttr(KindParryWindow, "whenMs", npc.Parry[0].WhenMs)
		if err != nil {
			return Plan{}, err
		}
		p.Directives = append(p.Directives, ParryWindow{Delay: delay})
	}

	if len(npc.Strike) == 1 {
		st := npc.Strike[0]
		if strings.TrimSpace(st.Kind) == "" {
			return Plan{}, fmt.Errorf("%w: %s kind", ErrMissingAttribute, KindStrike)
		}
		delay, err := parseMsAttr(KindStrike, "whenMs", st.WhenMs)
		if err != nil {
			return Plan{}, err
		}
		p.Directives = append(p.Directives, Strike{Delay: delay, Attack: combat.AttackKind(strings.TrimSpace(st.Kind))})
	}

	if len(npc.Why) == 1 {
		p.Rationale = strings.TrimSpace(npc.Why[0])
	}

	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	if p.IsEmpty() {
		return p, ErrEmptyPlan
	}
	return p, nil
}

// decodeRoot reads the single <actions> element. Anything but whitespace
// after it is malformed.
func decodeRoot(text string) (xmlActions, error) {
	var root xmlActions
	dec := xml.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&root); err != nil {
		return xmlActions{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return root, nil
		}
		if err != nil {
			return xmlActions{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if cd, ok := tok.(xml.CharData); ok && len(bytes.TrimSpace(cd)) == 0 {
			continue
		}
		return xmlActions{}, fmt.Errorf("%w: content after </actions>", ErrMalformed)
	}
}

func parseFloatAttr(kind Kind, name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s %s", ErrMissingAttribute, kind, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s=%q", ErrInvalidDirective, kind, name, raw)
	}
	return v, nil
}

func parseMsAttr(kind Kind, name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s %s", ErrMissingAttribute, kind, name)
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s=%q", ErrInvalidDirective, kind, name, raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Encode renders a plan as tagged text. Directives are written in the
// canonical order microStep, parry, strike so that Decode(Encode(p))
// yields the same directives for a canonical plan.
func Encode(p Plan) string {
	var sb strings.Builder

	if p.Timestamp != 0 {
		fmt.Fprintf(&sb, "<actions t=\"%d\">\n", p.Timestamp)
	} else {
		sb.WriteString("<actions>\n")
	}
	fmt.Fprintf(&sb, "  <npc id=\"%s\">\n", DefaultActorTag)

	for _, kind := range Kinds() {
		d, ok := p.Find(kind)
		if !ok {
			continue
		}
		switch v := d.(type) {
		case MicroStep:
			fmt.Fprintf(&sb, "    <microStep dx=\"%s\" durMs=\"%d\"/>\n",
				strconv.FormatFloat(v.DX, 'f', -1, 64), v.Duration.Milliseconds())
		case ParryWindow:
			fmt.Fprintf(&sb, "    <parry whenMs=\"%d\"/>\n", v.Delay.Milliseconds())
		case Strike:
			fmt.Fprintf(&sb, "    <strike kind=\"%s\" whenMs=\"%d\"/>\n", v.Attack, v.Delay.Milliseconds())
		}
	}

	if p.Rationale != "" {
		sb.WriteString("    <why>")
		_ = xml.EscapeText(&sb, []byte(p.Rationale))
		sb.WriteString("</why>\n")
	}

	sb.WriteString("  </npc>\n</actions>")
	return sb.String()
}

var actionsBlock = regexp.MustCompile(`(?is)<actions[\s>].*?</actions>`)

// Extract returns the first <actions>...</actions> block embedded in free
// text, or an empty string when there is none.
func Extract(text string) string {
	return actionsBlock.FindString(text)
}

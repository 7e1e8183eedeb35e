package oracle

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/duelist/domain/snapshot"
)

// SystemPrompt is the default instruction sent with every tick.
const SystemPrompt = `You are the tactical controller of a 1v1 2D duel (side view). Respond ONLY with compact XML that respects the contract. Keep horizon short (<= 600ms) and prioritize safety and fairness. Avoid impossible actions.

<contract>
  <action name="microStep" dxMin="-1.0" dxMax="1.0" durMsMin="40" durMsMax="180"/>
  <action name="parry" whenMsMin="40" whenMsMax="180"/>
  <action name="strike" kind="light|heavy" whenMsMin="80" whenMsMax="240"/>
</contract>

Emit each action at most once. Return format:
<actions t="TS">
  <npc id="boss">
    <microStep dx="..." durMs="..."/>
    <parry whenMs="..."/>
    <strike kind="light" whenMs="..."/>
    <why>short reason</why>
  </npc>
</actions>`

// Request attributes of the tick prompt.
const (
	HorizonMs = 600
	Budget    = 2
)

// TickPrompt renders the snapshot as the tick document given to the model.
func TickPrompt(snap snapshot.Snapshot) string {
	var sb strings.Builder
	t := strconv.FormatInt(snap.T, 10)

	fmt.Fprintf(&sb, "<tick t=%s>\n", quote(t))
	writeActor(&sb, "player", "", snap.Player)
	writeActor(&sb, "npc", "boss", snap.NPC)

	sb.WriteString("  <events>\n")
	for _, e := range snap.Events {
		at := e.At
		if at == 0 {
			at = snap.T
		}
		fmt.Fprintf(&sb, "    <event kind=%s actor=%s detail=%s t=%s/>\n",
			quote(string(e.Kind)), quote(string(e.Actor)), quote(e.Detail), quote(strconv.FormatInt(at, 10)))
	}
	sb.WriteString("  </events>\n")

	if len(snap.Patterns) > 0 {
		sb.WriteString("  <patterns>\n")
		for _, p := range snap.Patterns {
			fmt.Fprintf(&sb, "    <pattern signal=%s mean=%s recent=%s confidence=%s/>\n",
				quote(string(p.Signal)), quote(num(p.Mean)), quote(strconv.Itoa(p.Recent)), quote(strconv.FormatFloat(p.Confidence, 'f', 2, 64)))
		}
		sb.WriteString("  </patterns>\n")
	}

	fmt.Fprintf(&sb, "  <request actionsFor=\"boss\" horizonMs=\"%d\" budget=\"%d\"/>\n", HorizonMs, Budget)
	sb.WriteString("</tick>")
	return sb.String()
}

func writeActor(sb *strings.Builder, tag, id string, a snapshot.ActorSnapshot) {
	sb.WriteString("  <" + tag)
	if id != "" {
		sb.WriteString(" id=" + quote(id))
	}
	fmt.Fprintf(sb, " x=%s y=%s vx=%s facing=%s stamina=%s state=%s lastAction=%s lastTs=%s/>\n",
		quote(num(a.X)), quote(num(a.Y)), quote(num(a.VX)), quote(string(a.Facing)),
		quote(num(a.Gauges.Stamina)), quote(string(a.State)), quote(a.LastAction),
		quote(strconv.FormatInt(a.LastActionAt, 10)))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func quote(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return `"` + buf.String() + `"`
}

package main

import (
	"fmt"
	"strings"

	"xeth-go/pkg/log"
	"xeth-go/pkg/protocol"
)

// describe renders msg on one line for terminal output.
func describe(msg protocol.Message) string {
	var sb strings.Builder
	sb.WriteString(msg.Kind().String())
	switch m := msg.(type) {
	case *protocol.Break, *protocol.DumpIfinfo, *protocol.DumpFibinfo:
	case *protocol.Carrier:
		fmt.Fprintf(&sb, " xid=%s %s", m.Xid, m.Flag)
	case *protocol.Speed:
		fmt.Fprintf(&sb, " xid=%s %dMb/s", m.Xid, m.Mbps)
	case *protocol.EthtoolFlags:
		fmt.Fprintf(&sb, " xid=%s flags=%#x", m.Xid, m.Flags)
	case *protocol.Stat:
		fmt.Fprintf(&sb, " xid=%s index=%d count=%d", m.Xid, m.Index, m.Count)
	case *protocol.EthtoolSettings:
		fmt.Fprintf(&sb, " xid=%s speed=%d duplex=%s port=%s autoneg=%s",
			m.Xid, m.Speed, m.Duplex, m.Port, m.AutoNeg)
	case *protocol.EthtoolLinkModes:
		fmt.Fprintf(&sb, " xid=%s modes=%s", m.Xid, m.Modes)
	case *protocol.ChangeUpperXid:
		verb := "unlink"
		if m.Linking {
			verb = "link"
		}
		fmt.Fprintf(&sb, " %s upper=%s lower=%s", verb, m.Upper, m.Lower)
	case *protocol.Ifa:
		fmt.Fprintf(&sb, " xid=%s %s %s", m.Xid, m.Event, m.Prefix())
	case *protocol.Ifa6:
		fmt.Fprintf(&sb, " xid=%s %s %s", m.Xid, m.Event, m.Prefix())
	case *protocol.Ifinfo:
		fmt.Fprintf(&sb, " xid=%s %s ifindex=%d netns=%s kind=%s reason=%s addr=%s flags=%s",
			m.Xid, m.Name, m.Ifindex, m.Net, m.DevKind, m.Reason, m.HardwareAddr(), m.NetFlags())
	case *protocol.NeighUpdate:
		fmt.Fprintf(&sb, " ifindex=%d netns=%s %s lladdr=%s", m.Ifindex, m.Net, m.IP(), m.HardwareAddr())
	case *protocol.Netns:
		fmt.Fprintf(&sb, " netns=%s", m.Net)
	case *protocol.FibEntry:
		fmt.Fprintf(&sb, " %s %s table=%s type=%s netns=%s", m.Event, m.Prefix(), m.Table, m.Type, m.Net)
		for _, nh := range m.NextHops {
			fmt.Fprintf(&sb, " [via %s ifindex=%d weight=%d %s]", nh.Gw, nh.Ifindex, nh.Weight, nh.Scope)
		}
	case *protocol.Fib6Entry:
		fmt.Fprintf(&sb, " %s %s table=%s type=%s netns=%s", m.Event, m.Prefix(), m.Table, m.Type, m.Net)
		for _, nh := range append([]protocol.NextHop6{m.NextHop}, m.Siblings...) {
			fmt.Fprintf(&sb, " [via %s ifindex=%d weight=%d]", nh.Gw, nh.Ifindex, nh.Weight)
		}
	default:
		fmt.Fprintf(&sb, " %+v", msg)
	}
	return sb.String()
}

// logMessage writes msg to the log with its kind as a field, so stored
// entries can be selected with `xethctl logs --kind`.
func logMessage(msg protocol.Message) error {
	log.Info().Str("kind", msg.Kind().String()).Msg(describe(msg))
	return nil
}

package hw

import (
	"fmt"

	"c64core/hw/snapshot"
)

// StopReason tells why an execution call returned.
type StopReason uint8

const (
	StopNone            StopReason = iota // the requested amount of time has run
	StopBreakpoint                        // the CPU reached a breakpoint
	StopWatchpoint                        // the CPU accessed a watched address
	StopCPUJam                            // the CPU locked up on an illegal opcode
	StopRequested                         // SignalStop was called
	StopStepInstruction                   // one instruction ran after SignalStepInstruction
	StopCorrupted                         // the machine was hard reset after an internal error
)

var stopReasonNames = [...]string{
	StopNone:            "none",
	StopBreakpoint:      "breakpoint",
	StopWatchpoint:      "watchpoint",
	StopCPUJam:          "cpu jam",
	StopRequested:       "stop requested",
	StopStepInstruction: "step instruction",
	StopCorrupted:       "corrupted",
}

func (r StopReason) String() string {
	if int(r) < len(stopReasonNames) {
		return stopReasonNames[r]
	}
	return fmt.Sprintf("StopReason(%d)", r)
}

type NotificationKind uint8

const (
	NotifyBreakpoint NotificationKind = iota + 1
	NotifyWatchpoint
	NotifyCPUJam
	NotifyAlarm
	NotifyAutoSnapshot
	NotifyUserSnapshot
	NotifyFrameDone
	NotifyStandard
	NotifyDiskChanged
	NotifyReset
)

var notificationNames = [...]string{
	NotifyBreakpoint:   "breakpoint",
	NotifyWatchpoint:   "watchpoint",
	NotifyCPUJam:       "cpu jam",
	NotifyAlarm:        "alarm",
	NotifyAutoSnapshot: "auto snapshot",
	NotifyUserSnapshot: "user snapshot",
	NotifyFrameDone:    "frame done",
	NotifyStandard:     "video standard",
	NotifyDiskChanged:  "disk changed",
	NotifyReset:        "reset",
}

func (k NotificationKind) String() string {
	if int(k) < len(notificationNames) && notificationNames[k] != "" {
		return notificationNames[k]
	}
	return fmt.Sprintf("NotificationKind(%d)", k)
}

// A Notification reports a control event of the machine.
type Notification struct {
	Kind NotificationKind

	// Addr is the breakpoint, watchpoint or jam address.
	Addr uint16

	// Data depends on Kind: alarm payload, frame number, video standard,
	// drive number (negative when the disk was removed).
	Data int64

	// Snapshot is set for the snapshot notifications.
	Snapshot *snapshot.Machine
}

// A Notifier receives the machine notifications. Notify is called from the
// goroutine running the machine, it must not block.
type Notifier interface {
	Notify(Notification)
}

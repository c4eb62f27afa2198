package sse

import (
	"time"

	"github.com/GTDGit/pdv_api/internal/models"
)

// AttendanceChange describes a confirmation or cancellation of presence.
type AttendanceChange struct {
	Origin       models.LedgerOrigin `json:"origin"`
	ID           int                 `json:"id"`
	Confirmed    bool                `json:"confirmed"`
	OperatorID   *int                `json:"operatorId,omitempty"`
	AttractionID *int                `json:"attractionId,omitempty"`
}

// SyncSummary is the payload of an orders.synced event.
type SyncSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
	Pages   int `json:"pagesProcessed"`
}

// Notifier is the interface services use to emit panel events.
type Notifier interface {
	NotifySaleCreated(sale *models.Sale, attractionID *int)
	NotifyAttendanceChanged(change AttendanceChange)
	NotifyOrdersSynced(summary SyncSummary)
}

// HubNotifier implements Notifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
	now func() time.Time
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub, now: time.Now}
}

func (n *HubNotifier) NotifySaleCreated(sale *models.Sale, attractionID *int) {
	n.publish(EventSaleCreated, attractionID, sale)
}

func (n *HubNotifier) NotifyAttendanceChanged(change AttendanceChange) {
	event := EventAttendanceCancelled
	if change.Confirmed {
		event = EventAttendanceConfirmed
	}
	n.publish(event, change.AttractionID, change)
}

func (n *HubNotifier) NotifyOrdersSynced(summary SyncSummary) {
	n.publish(EventOrdersSynced, nil, summary)
}

func (n *HubNotifier) publish(event EventType, attractionID *int, data any) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&Event{
		Event:        event,
		AttractionID: attractionID,
		Data:         data,
		Timestamp:    n.now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) NotifySaleCreated(*models.Sale, *int)     {}
func (NopNotifier) NotifyAttendanceChanged(AttendanceChange) {}
func (NopNotifier) NotifyOrdersSynced(SyncSummary)           {}

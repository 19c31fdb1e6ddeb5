package server

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is the payload pushed to team SSE streams and the admin live feed.
type Event struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionId,omitempty"`
	TeamID      string `json:"teamId,omitempty"`
	TeamName    string `json:"teamName,omitempty"`
	PlayerName  string `json:"playerName,omitempty"`
	StageNumber int    `json:"stageNumber,omitempty"`
	HintNumber  int    `json:"hintNumber,omitempty"`
	Paths       int    `json:"paths,omitempty"`
	At          string `json:"at"`
}

const (
	eventConnected      = "connected"
	eventTeamStarted    = "team_started"
	eventStageUnlocked  = "stage_unlocked"
	eventTeamFinished   = "team_finished"
	eventHintRevealed   = "hint_revealed"
	eventPathsGenerated = "paths_generated"
)

// Broker is an in-process pub/sub keyed by topic. Teams and sessions
// each get their own topic.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
	now  func() time.Time
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
		now:  time.Now,
	}
}

func teamTopic(teamID string) string       { return "team:" + teamID }
func sessionTopic(sessionID string) string { return "session:" + sessionID }

// Subscribe returns a channel that receives JSON-encoded events for topic.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan []byte]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the topic's subscribers.
func (b *Broker) Unsubscribe(topic string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// PublishTeam sends ev to the team's stream and the session's live feed.
func (b *Broker) PublishTeam(sessionID, teamID string, ev Event) {
	ev.SessionID, ev.TeamID = sessionID, teamID
	data := b.encode(ev)
	b.publish(teamTopic(teamID), data)
	b.publish(sessionTopic(sessionID), data)
}

// PublishSession sends ev to the session's live feed only.
func (b *Broker) PublishSession(sessionID string, ev Event) {
	ev.SessionID = sessionID
	b.publish(sessionTopic(sessionID), b.encode(ev))
}

func (b *Broker) encode(ev Event) []byte {
	if ev.At == "" {
		ev.At = formatTime(b.now())
	}
	data, _ := json.Marshal(ev)
	return data
}

func (b *Broker) publish(topic string, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[topic] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

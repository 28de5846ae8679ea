package model

import "time"

// Event はコミュニティイベントを表す。
// attendeesはeventsテーブルのjsonbカラムに埋め込みで格納する。
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location,omitempty"`
	Mode            string    `json:"mode"`
	Type            string    `json:"type"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	RegistrationURL string    `json:"registrationUrl,omitempty"`
	Capacity        int       `json:"capacity,omitempty"`
	Website         string    `json:"website,omitempty"`
	Image           string    `json:"image,omitempty"`
	Tags            []string  `json:"tags"`
	Organizer       string    `json:"organizer"`
	OrganizerName   string    `json:"organizer_name,omitempty"`
	Attendees       []string  `json:"attendees"`
	Views           int       `json:"views"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// イベント開催形式。
const (
	EventModeOnline   = "online"
	EventModeInPerson = "in-person"
	EventModeHybrid   = "hybrid"
)

// イベント種別。
var EventTypes = []string{"hackathon", "workshop", "conference", "meetup", "webinar"}

// EventStatus はイベントの時間的ステータスを表す。
// DBには保存せず、リクエスト時点のサーバー時刻から導出する。
type EventStatus string

const (
	// EventStatusUpcoming は開始前のイベント。
	EventStatusUpcoming EventStatus = "upcoming"
	// EventStatusOngoing は開催中のイベント。
	EventStatusOngoing EventStatus = "ongoing"
	// EventStatusPast は終了済みのイベント。
	EventStatusPast EventStatus = "past"
)

// StatusAt は指定時刻におけるイベントの時間的ステータスを導出する。
// 1秒違いのリクエストで分類が変わり得るのは仕様上許容される。
func (e *Event) StatusAt(now time.Time) EventStatus {
	switch {
	case e.StartDate.After(now):
		return EventStatusUpcoming
	case e.EndDate.Before(now):
		return EventStatusPast
	default:
		return EventStatusOngoing
	}
}

// ToggleAttendee は指定ユーザーの参加登録をトグルする。
func (e *Event) ToggleAttendee(userID string) {
	for i, id := range e.Attendees {
		if id == userID {
			e.Attendees = append(e.Attendees[:i], e.Attendees[i+1:]...)
			return
		}
	}
	e.Attendees = append(e.Attendees, userID)
}

// EventList はイベント一覧レスポンスのキャッシュ単位。
type EventList struct {
	Events     []*Event   `json:"events"`
	Pagination Pagination `json:"pagination"`
}

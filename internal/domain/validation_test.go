package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ewm/internal/apperr"
)

func validNewEvent() NewEvent {
	return NewEvent{
		Annotation:  strings.Repeat("a", 25),
		Category:    1,
		Description: strings.Repeat("d", 25),
		Location:    &Location{Lat: 55.75, Lon: 37.61},
		Title:       "Meetup",
	}
}

func TestValidateNewEvent(t *testing.T) {
	ev := validNewEvent()
	require.NoError(t, Validate(ev))

	ev.Annotation = strings.Repeat(" ", 30)
	ev.Title = "ab"
	ev.ParticipantLimit = -1
	ev.Location = nil

	fes := FieldErrors(ev)
	fields := map[string]bool{}
	for _, fe := range fes {
		fields[fe.Field] = true
	}
	assert.True(t, fields["annotation"])
	assert.True(t, fields["title"])
	assert.True(t, fields["participantLimit"])
	assert.True(t, fields["location"])

	err := Validate(ev)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Len(t, ae.Details, len(fes))
}

func TestValidatePatchIgnoresNilFields(t *testing.T) {
	require.NoError(t, Validate(UpdateEventUser{}))

	short := "short"
	action := UserStateAction("PUBLISH_EVENT")
	fes := FieldErrors(UpdateEventUser{
		EventPatch:  EventPatch{Annotation: &short},
		StateAction: &action,
	})
	require.Len(t, fes, 2)
	assert.Equal(t, "annotation", fes[0].Field)
	assert.Equal(t, "stateAction", fes[1].Field)
}

func TestValidateNewUser(t *testing.T) {
	assert.NoError(t, Validate(NewUser{Name: "Ann", Email: "ann@example.com"}))
	assert.Error(t, Validate(NewUser{Name: "Ann", Email: "not-an-email"}))
	assert.Error(t, Validate(NewUser{Name: " ", Email: "ann@example.com"}))
}

func TestCheckEventDate(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

	assert.NoError(t, CheckEventDate(now.Add(2*time.Hour), now, OwnerDateLead))
	assert.Error(t, CheckEventDate(now.Add(119*time.Minute), now, OwnerDateLead))
	assert.NoError(t, CheckEventDate(now.Add(time.Hour), now, AdminDateLead))

	err := CheckEventDate(now.Add(59*time.Minute), now, AdminDateLead)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPageOffsetSnapsToPage(t *testing.T) {
	assert.Equal(t, 0, Page{}.Offset())
	assert.Equal(t, 10, Page{}.Limit())
	assert.Equal(t, 10, Page{From: 10, Size: 10}.Offset())
	assert.Equal(t, 10, Page{From: 15, Size: 10}.Offset())
	assert.Equal(t, 0, Page{From: 3, Size: 5}.Offset())
}

func TestViewURI(t *testing.T) {
	assert.Equal(t, "/events/42", ViewURI(42))
}

package ingest

// columnSet lists, per canonical field, the export header names to look for in
// priority order.
type columnSet struct {
	Subject           []string
	StartDate         []string
	StartTime         []string
	EndDate           []string
	EndTime           []string
	AllDay            []string
	Organizer         []string
	Attendees         []string
	OptionalAttendees []string
	Description       []string
	Location          []string
}

var outlookColumns = columnSet{
	Subject:           []string{"Subject"},
	StartDate:         []string{"Start Date"},
	StartTime:         []string{"Start Time"},
	EndDate:           []string{"End Date"},
	EndTime:           []string{"End Time"},
	AllDay:            []string{"All day event", "All Day Event"},
	Organizer:         []string{"Organizer", "Meeting Organizer"},
	Attendees:         []string{"Required Attendees", "Attendees"},
	OptionalAttendees: []string{"Optional Attendees"},
	Location:          []string{"Location"},
}

var googleColumns = columnSet{
	Subject:     []string{"Subject", "Title"},
	StartDate:   []string{"Start Date"},
	StartTime:   []string{"Start Time"},
	EndDate:     []string{"End Date"},
	EndTime:     []string{"End Time"},
	AllDay:      []string{"All Day Event", "All day event"},
	Description: []string{"Description"},
	Location:    []string{"Location"},
}

// resolved holds the column index of each field, -1 when absent.
type resolved struct {
	subject, startDate, startTime, endDate, endTime  int
	allDay, organizer, attendees, optional, location int
}

func (cs columnSet) resolve(t *Table) resolved {
	find := func(names []string) int {
		i, _ := t.Find(names)
		return i
	}
	return resolved{
		subject:   find(cs.Subject),
		startDate: find(cs.StartDate),
		startTime: find(cs.StartTime),
		endDate:   find(cs.EndDate),
		endTime:   find(cs.EndTime),
		allDay:    find(cs.AllDay),
		organizer: find(cs.Organizer),
		attendees: find(cs.Attendees),
		optional:  find(cs.OptionalAttendees),
		location:  find(cs.Location),
	}
}

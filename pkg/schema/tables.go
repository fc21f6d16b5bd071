package schema

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/bruin-data/dwh/pkg/query"
)

type Kind string

const (
	KindStaging   Kind = "staging"
	KindFact      Kind = "fact"
	KindDimension Kind = "dimension"
)

type Column struct {
	Name       string
	Type       string
	Attributes string
}

type Table struct {
	Name      string
	Kind      Kind
	Columns   []Column
	DistStyle string
}

func varchar(name string) Column {
	return Column{Name: name, Type: "VARCHAR(1024)"}
}

var (
	StagingEvents = Table{
		Name: "staging_events",
		Kind: KindStaging,
		Columns: []Column{
			varchar("artist"),
			varchar("auth"),
			varchar("firstName"),
			varchar("gender"),
			{Name: "itemInSession", Type: "INTEGER"},
			varchar("lastName"),
			{Name: "length", Type: "REAL"},
			varchar("level"),
			varchar("location"),
			varchar("method"),
			{Name: "page", Type: "VARCHAR(1024)", Attributes: "SORTKEY"},
			{Name: "registration", Type: "DOUBLE PRECISION"},
			{Name: "sessionId", Type: "INTEGER"},
			{Name: "song", Type: "VARCHAR(1024)", Attributes: "DISTKEY"},
			{Name: "status", Type: "INTEGER"},
			{Name: "ts", Type: "BIGINT"},
			{Name: "userAgent", Type: "VARCHAR(65535)"},
			varchar("userId"),
		},
	}

	StagingSongs = Table{
		Name: "staging_songs",
		Kind: KindStaging,
		Columns: []Column{
			{Name: "num_songs", Type: "INTEGER"},
			varchar("artist_id"),
			{Name: "artist_latitude", Type: "REAL"},
			{Name: "artist_longitude", Type: "REAL"},
			varchar("artist_location"),
			varchar("artist_name"),
			varchar("song_id"),
			{Name: "title", Type: "VARCHAR(1024)", Attributes: "DISTKEY"},
			{Name: "duration", Type: "REAL"},
			varchar("year"),
		},
	}

	Songplay = Table{
		Name: "songplay",
		Kind: KindFact,
		Columns: []Column{
			{Name: "songplay_id", Type: "BIGINT", Attributes: "IDENTITY(0, 1) PRIMARY KEY"},
			{Name: "start_time", Type: "BIGINT", Attributes: "NOT NULL"},
			{Name: "user_id", Type: "TEXT", Attributes: "NOT NULL DISTKEY"},
			{Name: "level", Type: "TEXT"},
			{Name: "song_id", Type: "TEXT", Attributes: "NOT NULL"},
			{Name: "artist_id", Type: "TEXT", Attributes: "NOT NULL"},
			{Name: "session_id", Type: "INTEGER"},
			{Name: "location", Type: "TEXT", Attributes: "SORTKEY"},
			{Name: "user_agent", Type: "TEXT"},
		},
	}

	Users = Table{
		Name: "users",
		Kind: KindDimension,
		Columns: []Column{
			{Name: "user_id", Type: "TEXT", Attributes: "PRIMARY KEY DISTKEY"},
			{Name: "first_name", Type: "TEXT"},
			{Name: "last_name", Type: "TEXT"},
			{Name: "gender", Type: "TEXT"},
			{Name: "level", Type: "TEXT"},
		},
	}

	Songs = Table{
		Name: "songs",
		Kind: KindDimension,
		Columns: []Column{
			{Name: "song_id", Type: "TEXT", Attributes: "PRIMARY KEY DISTKEY"},
			{Name: "title", Type: "TEXT"},
			{Name: "artist_id", Type: "TEXT"},
			{Name: "year", Type: "INTEGER"},
			{Name: "duration", Type: "FLOAT"},
		},
	}

	Artists = Table{
		Name: "artists",
		Kind: KindDimension,
		Columns: []Column{
			{Name: "artist_id", Type: "TEXT", Attributes: "PRIMARY KEY"},
			{Name: "name", Type: "TEXT"},
			{Name: "location", Type: "TEXT"},
			{Name: "latitude", Type: "FLOAT"},
			{Name: "longitude", Type: "FLOAT"},
		},
		DistStyle: "ALL",
	}

	Time = Table{
		Name: "time",
		Kind: KindDimension,
		Columns: []Column{
			{Name: "start_time", Type: "BIGINT", Attributes: "PRIMARY KEY"},
			{Name: "hour", Type: "INTEGER"},
			{Name: "day", Type: "INTEGER"},
			{Name: "week", Type: "INTEGER"},
			{Name: "month", Type: "INTEGER"},
			{Name: "year", Type: "INTEGER"},
			{Name: "weekday", Type: "INTEGER"},
		},
		DistStyle: "ALL",
	}
)

// Tables is the whole warehouse in the order the statements run.
var Tables = []Table{StagingEvents, StagingSongs, Songplay, Users, Songs, Artists, Time}

func (t Table) ColumnNames() []string {
	return lo.Map(t.Columns, func(c Column, _ int) string {
		return c.Name
	})
}

func (c Column) definition() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", c.Name, c.Type, c.Attributes))
}

func (t Table) CreateQuery() *query.Query {
	columns := lo.Map(t.Columns, func(c Column, _ int) string {
		return "    " + c.definition()
	})

	var b strings.Builder
	b.WriteString("CREATE TABLE " + t.Name + " (\n")
	b.WriteString(strings.Join(columns, ",\n"))
	b.WriteString("\n)")
	if t.DistStyle != "" {
		b.WriteString("\nDISTSTYLE " + t.DistStyle)
	}
	b.WriteString(";")

	return &query.Query{Name: "create_" + t.Name, Query: b.String()}
}

func (t Table) DropQuery() *query.Query {
	return &query.Query{Name: "drop_" + t.Name, Query: "DROP TABLE IF EXISTS " + t.Name + ";"}
}

func (t Table) SampleQuery(limit int) *query.Query {
	return &query.Query{
		Name:  "sample_" + t.Name,
		Query: fmt.Sprintf("SELECT * FROM %s ORDER BY random() LIMIT %d;", t.Name, limit),
	}
}

func DropTableQueries() []*query.Query {
	return lo.Map(Tables, func(t Table, _ int) *query.Query { return t.DropQuery() })
}

func CreateTableQueries() []*query.Query {
	return lo.Map(Tables, func(t Table, _ int) *query.Query { return t.CreateQuery() })
}

func TablesOfKind(kind Kind) []Table {
	return lo.Filter(Tables, func(t Table, _ int) bool { return t.Kind == kind })
}

package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playperu/treasurehunt/internal/hunt"
	"github.com/playperu/treasurehunt/internal/roster"
)

const (
	demoAdminEmail = "admin@playperu.com"
	// bcrypt of "changeme"
	demoAdminHash = "$2a$10$trCdqP4npsbw0R1vQxVwXeT1HebzRmP01SXaNGPz1eSAZ7mpcL0Uu"
	demoKeyword   = "LIMA2025"
)

func coord(v float64) *float64 { return &v }

func demoLocations() []LocationRequest {
	return []LocationRequest{
		{
			Code:    "PLAZA1",
			Name:    hunt.Text{EN: "Plaza Mayor", ES: "Plaza Mayor"},
			Riddle:  hunt.Text{EN: "Every team sets out from the heart of the old city.", ES: "Todos los equipos parten del corazón de la ciudad antigua."},
			Lat:     coord(-12.0464),
			Lng:     coord(-77.0300),
			IsStart: true,
		},
		{
			Code:   "FRANCIS2",
			Name:   hunt.Text{EN: "San Francisco Monastery", ES: "Convento de San Francisco"},
			Riddle: hunt.Text{EN: "Bones lie in rows beneath a yellow church.", ES: "Huesos en filas bajo una iglesia amarilla."},
			Hints: []hunt.Text{
				{EN: "Look for the catacombs.", ES: "Busca las catacumbas."},
				{EN: "It is two blocks east of the main square.", ES: "Está a dos cuadras al este de la plaza."},
				{EN: "Ancash street, next to the river side.", ES: "Jirón Áncash, hacia el río."},
			},
			Lat:        coord(-12.0463),
			Lng:        coord(-77.0275),
			OrderIndex: 1,
		},
		{
			Code:   "UNION3",
			Name:   hunt.Text{EN: "Jirón de la Unión", ES: "Jirón de la Unión"},
			Riddle: hunt.Text{EN: "The city's oldest shopping street joins two squares.", ES: "La calle comercial más antigua une dos plazas."},
			Hints: []hunt.Text{
				{EN: "It is pedestrian only.", ES: "Es peatonal."},
				{EN: "Walk south from the main square.", ES: "Camina al sur desde la plaza."},
				{EN: "It ends at Plaza San Martín.", ES: "Termina en la Plaza San Martín."},
			},
			Lat:        coord(-12.0500),
			Lng:        coord(-77.0350),
			OrderIndex: 2,
		},
		{
			Code:   "ALIAGA4",
			Name:   hunt.Text{EN: "Casa de Aliaga", ES: "Casa de Aliaga"},
			Riddle: hunt.Text{EN: "One family has lived in this house since the city was founded.", ES: "Una familia vive en esta casa desde la fundación de la ciudad."},
			Hints: []hunt.Text{
				{EN: "It is a colonial mansion.", ES: "Es una casona colonial."},
				{EN: "It faces the Government Palace.", ES: "Está frente a Palacio de Gobierno."},
				{EN: "Jirón de la Unión 224.", ES: "Jirón de la Unión 224."},
			},
			Lat:        coord(-12.0453),
			Lng:        coord(-77.0302),
			OrderIndex: 3,
		},
		{
			Code:       "MURALLA5",
			Name:       hunt.Text{EN: "Parque de la Muralla", ES: "Parque de la Muralla"},
			Riddle:     hunt.Text{EN: "Finish where the old city wall still stands by the river.", ES: "Termina donde la antigua muralla sigue junto al río."},
			Lat:        coord(-12.0450),
			Lng:        coord(-77.0260),
			IsEnd:      true,
			OrderIndex: 4,
		},
	}
}

// SeedDemo creates the admin account and, on an empty database, a demo
// session in Lima with locations, two teams and four players.
// Paths are left for the admin to generate.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	if err := store.CreateAdmin(ctx, demoAdminEmail, demoAdminHash); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	existing, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	sess, err := store.CreateSession(ctx, SessionRequest{
		Name:    "Lima Centro",
		Keyword: demoKeyword,
		Status:  string(hunt.SessionStatusActive),
	})
	if err != nil {
		return fmt.Errorf("creating demo session: %w", err)
	}

	for _, req := range demoLocations() {
		if _, err := store.CreateLocation(ctx, req.location(sess.ID, "")); err != nil {
			return fmt.Errorf("creating location %s: %w", req.Code, err)
		}
	}

	if _, err := store.CreateTeam(ctx, sess.ID, TeamRequest{Name: "Los Incas", GPSHintEnabled: true}); err != nil {
		return fmt.Errorf("creating team: %w", err)
	}
	if _, err := store.CreateTeam(ctx, sess.ID, TeamRequest{Name: "Los Cóndores"}); err != nil {
		return fmt.Errorf("creating team: %w", err)
	}

	if _, err := store.ImportPlayers(ctx, sess.ID, []roster.Entry{
		{Name: "María Quispe", Email: "maria@example.com", Team: "Los Incas"},
		{Name: "Carlos Mamani", Email: "carlos@example.com", Team: "Los Incas"},
		{Name: "Ana Huamán", Email: "ana@example.com", Team: "Los Cóndores"},
		{Name: "Luis Torres", Email: "luis@example.com", Team: "Los Cóndores"},
	}); err != nil {
		return fmt.Errorf("importing demo players: %w", err)
	}

	logger.Info("demo session seeded", "session_id", sess.ID, "keyword", demoKeyword)
	return nil
}

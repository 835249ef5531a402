package config

import "time"

// Config collects every runtime setting of the server. Values are parsed
// from the environment with the CAMPUS prefix (e.g. CAMPUS_WEB_ADDRESS).
type Config struct {
	Web     Web
	DB      DB
	Cors    Cors
	Session Session
	Store   Store
	Rate    Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost:5432"`
	Name       string `conf:"default:campus_market"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

// Store holds the pricing knobs of the campus store: the flat delivery fee,
// the email domains eligible for the student fee waiver and the pickup
// discount, and the membership fee charged per year.
type Store struct {
	DeliveryFee   string `conf:"default:20.00"`
	StudentDomain string `conf:"default:student.campus.edu"`
	StaffDomain   string `conf:"default:campus.edu"`
	MembershipFee string `conf:"default:20.00"`
}

type Rate struct {
	Burst         int     `conf:"default:20"`
	RequestsPerS  float64 `conf:"default:10"`
	ExpiryMinutes int     `conf:"default:30"`
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dchole/handymen/internal/config"
	"github.com/Dchole/handymen/internal/db"
)

// The simulator drives the public HTTP API with logged-in accounts from
// the seed data. All seeded accounts share the seed password.
const seedPassword = "Password1!"

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	BookingRatio  float64
	CancelRatio   float64
	WindowRatio   float64
	ListRatio     float64
	CustomerLimit int
	HandymanLimit int
	PostgresDSN   string
}

type actor struct {
	token string
}

type DataPool struct {
	Customers   []actor
	Handymen    []actor
	Professions []string

	mu       sync.RWMutex
	bookings []bookingRef
}

type bookingRef struct {
	id    uuid.UUID
	owner actor
}

func (dp *DataPool) AddBooking(id uuid.UUID, owner actor) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, bookingRef{id: id, owner: owner})
}

func (dp *DataPool) RandomBooking(rng *rand.Rand) (bookingRef, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return bookingRef{}, false
	}
	return dp.bookings[rng.Intn(len(dp.bookings))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Booking      OperationMetrics
	Cancel       OperationMetrics
	CreateWindow OperationMetrics
	ListBookings OperationMetrics
	ListWindows  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f cancel=%.2f window=%.2f list=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.CancelRatio, cfg.WindowRatio, cfg.ListRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	client := &http.Client{Timeout: 10 * time.Second}

	dataPool, err := loadDataPool(ctx, pgPool, client, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("logged in: %d customers, %d handymen, %d professions",
		len(dataPool.Customers), len(dataPool.Handymen), len(dataPool.Professions))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: client,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.4),
		CancelRatio:   getFloat("SIM_CANCEL_RATIO", 0.1),
		WindowRatio:   getFloat("SIM_WINDOW_RATIO", 0.2),
		ListRatio:     getFloat("SIM_LIST_RATIO", 0.3),
		CustomerLimit: getInt("SIM_CUSTOMER_LIMIT", 200),
		HandymanLimit: getInt("SIM_HANDYMAN_LIMIT", 50),
		PostgresDSN:   baseCfg.PostgresDSN,
	}

	total := cfg.BookingRatio + cfg.CancelRatio + cfg.WindowRatio + cfg.ListRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CancelRatio /= total
		cfg.WindowRatio /= total
		cfg.ListRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, client *http.Client, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	customerEmails, err := loadEmails(ctx, pool, "CUSTOMER", cfg.CustomerLimit)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	handymanEmails, err := loadEmails(ctx, pool, "HANDYMAN", cfg.HandymanLimit)
	if err != nil {
		return nil, fmt.Errorf("load handymen: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT DISTINCT unnest(professions) FROM handyman_profiles
	`)
	if err != nil {
		return nil, fmt.Errorf("load professions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		dataPool.Professions = append(dataPool.Professions, p)
	}

	for _, email := range customerEmails {
		token, err := login(ctx, client, cfg.APIBaseURL, email)
		if err != nil {
			log.Printf("login %s: %v", email, err)
			continue
		}
		dataPool.Customers = append(dataPool.Customers, actor{token: token})
	}
	for _, email := range handymanEmails {
		token, err := login(ctx, client, cfg.APIBaseURL, email)
		if err != nil {
			log.Printf("login %s: %v", email, err)
			continue
		}
		dataPool.Handymen = append(dataPool.Handymen, actor{token: token})
	}

	if len(dataPool.Customers) == 0 {
		return nil, fmt.Errorf("no customers logged in")
	}
	if len(dataPool.Handymen) == 0 {
		return nil, fmt.Errorf("no handymen logged in")
	}
	if len(dataPool.Professions) == 0 {
		return nil, fmt.Errorf("no professions loaded")
	}

	return dataPool, nil
}

func loadEmails(ctx context.Context, pool *pgxpool.Pool, accountType string, limit int) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT email FROM users WHERE account_type = $1 LIMIT $2
	`, accountType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func login(ctx context.Context, client *http.Client, baseURL, email string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": seedPassword,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login status %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}
	if loginResp.Token == "" {
		return "", fmt.Errorf("empty token")
	}
	return loginResp.Token, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			case r < s.config.BookingRatio+s.config.CancelRatio+s.config.WindowRatio:
				s.doCreateWindow(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doListBookings(ctx, rng)
				} else {
					s.doListWindows(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	customer := s.pool.Customers[rng.Intn(len(s.pool.Customers))]
	profession := s.pool.Professions[rng.Intn(len(s.pool.Professions))]

	// Random 1-3 hour job in the next two weeks, aligned to the hour.
	startHour := rng.Intn(14*24) + 1
	startTime := time.Now().UTC().Truncate(time.Hour).Add(time.Duration(startHour) * time.Hour)
	endTime := startTime.Add(time.Duration(rng.Intn(3)+1) * time.Hour)

	body, _ := json.Marshal(map[string]string{
		"profession": profession,
		"start_time": startTime.Format(time.RFC3339),
		"end_time":   endTime.Format(time.RFC3339),
	})

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/booking-requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+customer.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
			var bookingResp struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &bookingResp)
				if bookingResp.ID != uuid.Nil {
					s.pool.AddBooking(bookingResp.ID, customer)
				}
			}
		case http.StatusConflict:
			// No handyman available counts as a normal negative outcome.
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	ref, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/booking-requests/%s/cancel", s.config.APIBaseURL, ref.id.String()), nil)
	req.Header.Set("Authorization", "Bearer "+ref.owner.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNoContent {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Cancel.Record(latency, success, conflict)
}

func (s *Simulator) doCreateWindow(ctx context.Context, rng *rand.Rand) {
	handyman := s.pool.Handymen[rng.Intn(len(s.pool.Handymen))]

	// Windows land far in the future so they rarely collide with the
	// seeded two-week schedule, but can still overlap each other.
	startHour := rng.Intn(30*24) + 15*24
	startTime := time.Now().UTC().Truncate(time.Hour).Add(time.Duration(startHour) * time.Hour)
	endTime := startTime.Add(time.Duration(rng.Intn(6)+2) * time.Hour)

	body, _ := json.Marshal(map[string]string{
		"start_time": startTime.Format(time.RFC3339),
		"end_time":   endTime.Format(time.RFC3339),
	})

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/availability", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+handyman.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusCreated {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.CreateWindow.Record(latency, success, conflict)
}

func (s *Simulator) doListBookings(ctx context.Context, rng *rand.Rand) {
	customer := s.pool.Customers[rng.Intn(len(s.pool.Customers))]

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		s.config.APIBaseURL+"/booking-requests?page=1&limit=20", nil)
	req.Header.Set("Authorization", "Bearer "+customer.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListBookings.Record(latency, success, false)
}

func (s *Simulator) doListWindows(ctx context.Context, rng *rand.Rand) {
	handyman := s.pool.Handymen[rng.Intn(len(s.pool.Handymen))]

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		s.config.APIBaseURL+"/availability?page=1&limit=20", nil)
	req.Header.Set("Authorization", "Bearer "+handyman.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListWindows.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Create Window", &s.metrics.CreateWindow)
	printOperationReport("List Bookings", &s.metrics.ListBookings)
	printOperationReport("List Windows", &s.metrics.ListWindows)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failures := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failures > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failures, float64(failures)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	config "bistro-analytics-api/configs"
	"bistro-analytics-api/pkg/store"
)

// Synthetic data generator for local development. Populates the sales
// schema with a few months of plausible restaurant activity so every
// analytics endpoint has something to chew on.

const schema = `
CREATE TABLE IF NOT EXISTS stores (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	city VARCHAR(120),
	state VARCHAR(8),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS channels (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(120) NOT NULL,
	type CHAR(1) NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(120) NOT NULL,
	type CHAR(1) NOT NULL,
	deleted_at DATETIME NULL
);
CREATE TABLE IF NOT EXISTS products (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	category_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	pos_uuid VARCHAR(64),
	deleted_at DATETIME NULL,
	INDEX idx_products_category (category_id)
);
CREATE TABLE IF NOT EXISTS items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	category_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	pos_uuid VARCHAR(64)
);
CREATE TABLE IF NOT EXISTS customers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	customer_name VARCHAR(255) NOT NULL,
	email VARCHAR(255),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sales (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	store_id BIGINT NOT NULL,
	channel_id BIGINT NOT NULL,
	customer_id BIGINT NULL,
	sale_status_desc VARCHAR(32) NOT NULL,
	total_amount DECIMAL(12,2) NOT NULL,
	delivery_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
	production_seconds INT NULL,
	delivery_seconds INT NULL,
	cancellation_reason VARCHAR(255) NULL,
	created_at DATETIME NOT NULL,
	INDEX idx_sales_created (created_at),
	INDEX idx_sales_store (store_id),
	INDEX idx_sales_channel (channel_id),
	INDEX idx_sales_customer (customer_id)
);
CREATE TABLE IF NOT EXISTS product_sales (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	sale_id BIGINT NOT NULL,
	product_id BIGINT NOT NULL,
	quantity INT NOT NULL,
	base_price DECIMAL(10,2) NOT NULL,
	cost_price DECIMAL(10,2) NOT NULL,
	total_price DECIMAL(12,2) NOT NULL,
	INDEX idx_product_sales_sale (sale_id),
	INDEX idx_product_sales_product (product_id)
);
CREATE TABLE IF NOT EXISTS item_product_sales (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	product_sale_id BIGINT NOT NULL,
	item_id BIGINT NOT NULL,
	quantity INT NOT NULL,
	additional_price DECIMAL(10,2) NOT NULL,
	INDEX idx_item_product_sales_ps (product_sale_id)
);
CREATE TABLE IF NOT EXISTS delivery_sales (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	sale_id BIGINT NOT NULL,
	courier_type VARCHAR(32) NOT NULL,
	delivery_fee DECIMAL(10,2) NOT NULL,
	courier_fee DECIMAL(10,2) NOT NULL,
	INDEX idx_delivery_sales_sale (sale_id)
);
CREATE TABLE IF NOT EXISTS delivery_addresses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	sale_id BIGINT NOT NULL,
	neighborhood VARCHAR(120),
	city VARCHAR(120),
	INDEX idx_delivery_addresses_sale (sale_id)
);
`

var (
	productCategories = []string{"Burgers", "Pizzas", "Pratos", "Combos", "Sobremesas", "Bebidas"}
	itemCategories    = []string{"Complementos", "Molhos", "Adicionais"}

	productPrefixes = map[string][]string{
		"Burgers":    {"X-Burger", "Cheeseburger", "Bacon Burger", "Double Burger", "Veggie Burger"},
		"Pizzas":     {"Pizza Margherita", "Pizza Calabresa", "Pizza 4 Queijos", "Pizza Portuguesa", "Pizza Frango"},
		"Pratos":     {"Prato Executivo", "Filé", "Frango Grelhado", "Lasanha", "Risoto"},
		"Combos":     {"Combo Família", "Combo Individual", "Combo Duplo", "Combo Kids", "Combo Executivo"},
		"Sobremesas": {"Brownie", "Pudim", "Sorvete", "Petit Gateau", "Torta"},
		"Bebidas":    {"Refrigerante", "Suco", "Água", "Cerveja", "Vinho"},
	}

	itemNames = map[string][]string{
		"Complementos": {"Bacon", "Queijo Cheddar", "Queijo Mussarela", "Ovo", "Alface", "Tomate", "Cebola", "Picles", "Cogumelos", "Catupiry"},
		"Molhos":       {"Molho Barbecue", "Molho Mostarda", "Molho Especial", "Maionese", "Ketchup", "Molho Picante"},
		"Adicionais":   {"Batata Frita", "Onion Rings", "Nuggets", "Salada", "Arroz", "Farofa"},
	}

	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fábio", "Gabriela", "Hugo", "Isabela", "João", "Karina", "Lucas", "Mariana", "Nelson", "Olívia", "Paulo", "Renata", "Sérgio", "Tatiana", "Vinícius"}
	lastNames  = []string{"Silva", "Santos", "Oliveira", "Souza", "Pereira", "Costa", "Rodrigues", "Almeida", "Nascimento", "Lima", "Araújo", "Fernandes", "Carvalho", "Gomes", "Martins", "Rocha", "Ribeiro", "Barbosa"}

	cities        = []string{"São Paulo", "Campinas", "Santos", "Guarulhos", "Osasco", "Sorocaba", "Jundiaí", "Santo André"}
	neighborhoods = []string{"Centro", "Jardim Paulista", "Vila Mariana", "Moema", "Pinheiros", "Tatuapé", "Santana", "Lapa", "Ipiranga", "Butantã"}

	cancellationReasons = []string{"Cliente desistiu", "Produto indisponível", "Demora no preparo", "Erro no pedido", "Pagamento recusado"}

	courierTypes = []string{"PLATFORM", "OWN", "THIRD_PARTY"}
)

type channelSeed struct {
	id     int64
	name   string
	typ    string // P presencial, D delivery
	weight float64
}

type productSeed struct {
	id         int64
	basePrice  float64
	costPrice  float64
	popularity float64
	hasItems   bool
}

type itemSeed struct {
	id    int64
	price float64
}

// Evening and lunch peaks; quiet overnight. Index is the hour of day.
var hourWeights = [24]float64{
	0.02, 0.02, 0.02, 0.02, 0.02, 0.02,
	0.08, 0.08, 0.08, 0.08, 0.08,
	0.35, 0.35, 0.35, 0.35,
	0.10, 0.10, 0.10, 0.10,
	0.40, 0.40, 0.40, 0.40,
	0.05,
}

// Sunday..Saturday, weekends busier.
var weekdayMult = [7]float64{1.4, 0.8, 0.9, 0.95, 1.0, 1.3, 1.5}

func main() {
	var (
		numStores    = flag.Int("stores", 12, "number of stores")
		numProducts  = flag.Int("products", 120, "number of products")
		numCustomers = flag.Int("customers", 2000, "number of customers")
		months       = flag.Int("months", 6, "months of sales history")
		dailyBase    = flag.Int("daily", 400, "average sales per day")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.LoadConfig()

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(*seed))

	if err := createSchema(ctx, db); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	g := &generator{db: db, rng: rng}
	if err := g.run(ctx, *numStores, *numProducts, *numCustomers, *months, *dailyBase); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}

func createSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

type generator struct {
	db  *sql.DB
	rng *rand.Rand

	stores    []int64
	channels  []channelSeed
	products  []productSeed
	items     []itemSeed
	customers []int64

	totalSales int
}

func (g *generator) run(ctx context.Context, numStores, numProducts, numCustomers, months, dailyBase int) error {
	log.Println("Seeding base data...")
	if err := g.seedChannels(ctx); err != nil {
		return err
	}
	if err := g.seedStores(ctx, numStores); err != nil {
		return err
	}
	if err := g.seedCatalog(ctx, numProducts); err != nil {
		return err
	}
	if err := g.seedCustomers(ctx, numCustomers); err != nil {
		return err
	}
	log.Printf("Base data ready: %d stores, %d products, %d items, %d customers",
		len(g.stores), len(g.products), len(g.items), len(g.customers))

	if err := g.seedSales(ctx, months, dailyBase); err != nil {
		return err
	}
	log.Printf("Done: %d sales generated", g.totalSales)
	return nil
}

func (g *generator) seedChannels(ctx context.Context) error {
	seeds := []channelSeed{
		{name: "Presencial", typ: "P", weight: 0.40},
		{name: "iFood", typ: "D", weight: 0.30},
		{name: "Rappi", typ: "D", weight: 0.15},
		{name: "Uber Eats", typ: "D", weight: 0.08},
		{name: "WhatsApp", typ: "D", weight: 0.05},
		{name: "App Próprio", typ: "D", weight: 0.02},
	}
	for i := range seeds {
		res, err := g.db.ExecContext(ctx,
			"INSERT INTO channels (name, type) VALUES (?, ?)", seeds[i].name, seeds[i].typ)
		if err != nil {
			return fmt.Errorf("insert channel: %w", err)
		}
		seeds[i].id, _ = res.LastInsertId()
	}
	g.channels = seeds
	return nil
}

func (g *generator) seedStores(ctx context.Context, n int) error {
	states := []string{"SP", "RJ", "MG", "PR"}
	for i := 0; i < n; i++ {
		city := cities[g.rng.Intn(len(cities))]
		active := g.rng.Float64() > 0.1
		created := time.Now().AddDate(0, 0, -g.rng.Intn(540)-180)
		res, err := g.db.ExecContext(ctx, `
			INSERT INTO stores (name, city, state, is_active, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			fmt.Sprintf("Bistro %s %02d", city, i+1),
			city, states[g.rng.Intn(len(states))], active, created)
		if err != nil {
			return fmt.Errorf("insert store: %w", err)
		}
		id, _ := res.LastInsertId()
		g.stores = append(g.stores, id)
	}
	return nil
}

func (g *generator) seedCatalog(ctx context.Context, numProducts int) error {
	perCategory := numProducts / len(productCategories)
	for _, cat := range productCategories {
		res, err := g.db.ExecContext(ctx,
			"INSERT INTO categories (name, type) VALUES (?, 'P')", cat)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		catID, _ := res.LastInsertId()

		prefixes := productPrefixes[cat]
		sizes := []string{"P", "M", "G"}
		for i := 0; i < perCategory; i++ {
			name := fmt.Sprintf("%s %s #%03d", prefixes[g.rng.Intn(len(prefixes))], sizes[i%3], i+1)
			basePrice := round2(15 + g.rng.Float64()*105)
			res, err := g.db.ExecContext(ctx, `
				INSERT INTO products (category_id, name, pos_uuid)
				VALUES (?, ?, ?)`,
				catID, name, uuid.New().String())
			if err != nil {
				return fmt.Errorf("insert product: %w", err)
			}
			id, _ := res.LastInsertId()
			g.products = append(g.products, productSeed{
				id:        id,
				basePrice: basePrice,
				// Cost between 55% and 90% of price so some products land
				// below the healthy margin line.
				costPrice:  round2(basePrice * (0.55 + g.rng.Float64()*0.35)),
				popularity: g.rng.Float64()*g.rng.Float64() + 0.05,
				hasItems:   g.rng.Float64() > 0.4,
			})
		}
	}

	for _, cat := range itemCategories {
		res, err := g.db.ExecContext(ctx,
			"INSERT INTO categories (name, type) VALUES (?, 'I')", cat)
		if err != nil {
			return fmt.Errorf("insert item category: %w", err)
		}
		catID, _ := res.LastInsertId()
		for _, name := range itemNames[cat] {
			res, err := g.db.ExecContext(ctx, `
				INSERT INTO items (category_id, name, pos_uuid)
				VALUES (?, ?, ?)`,
				catID, name, uuid.New().String())
			if err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
			id, _ := res.LastInsertId()
			g.items = append(g.items, itemSeed{id: id, price: round2(2 + g.rng.Float64()*13)})
		}
	}
	return nil
}

func (g *generator) seedCustomers(ctx context.Context, n int) error {
	bar := progressbar.Default(int64(n))
	for i := 0; i < n; i++ {
		first := firstNames[g.rng.Intn(len(firstNames))]
		last := lastNames[g.rng.Intn(len(lastNames))]
		created := time.Now().AddDate(0, 0, -g.rng.Intn(720))
		res, err := g.db.ExecContext(ctx, `
			INSERT INTO customers (customer_name, email, created_at)
			VALUES (?, ?, ?)`,
			first+" "+last,
			fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			created)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		id, _ := res.LastInsertId()
		g.customers = append(g.customers, id)
		bar.Add(1)
	}
	return nil
}

func (g *generator) seedSales(ctx context.Context, months, dailyBase int) error {
	days := months * 30
	start := time.Now().AddDate(0, 0, -days)

	// One suppressed week and one promo spike so the deviation and
	// degradation detectors have anomalies to find.
	anomalyStart := start.AddDate(0, 0, 30+g.rng.Intn(30))
	promoDay := start.AddDate(0, 0, 90+g.rng.Intn(30))

	log.Printf("Generating %d days of sales...", days)
	bar := progressbar.Default(int64(days))

	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		mult := weekdayMult[int(day.Weekday())]
		if !day.Before(anomalyStart) && day.Before(anomalyStart.AddDate(0, 0, 7)) {
			mult *= 0.7
		}
		if day.Year() == promoDay.Year() && day.YearDay() == promoDay.YearDay() {
			mult *= 3.0
		}

		count := int((float64(dailyBase) + g.rng.NormFloat64()*float64(dailyBase)/6) * mult)
		if count < 0 {
			count = 0
		}

		tx, err := g.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		for i := 0; i < count; i++ {
			if err := g.insertSale(ctx, tx, g.saleTime(day)); err != nil {
				tx.Rollback()
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit day %s: %w", day.Format("2006-01-02"), err)
		}
		g.totalSales += count
		bar.Add(1)
	}
	return nil
}

func (g *generator) saleTime(day time.Time) time.Time {
	hour := weightedHour(g.rng)
	return time.Date(day.Year(), day.Month(), day.Day(),
		hour, g.rng.Intn(60), g.rng.Intn(60), 0, day.Location())
}

func weightedHour(rng *rand.Rand) int {
	var total float64
	for _, w := range hourWeights {
		total += w
	}
	r := rng.Float64() * total
	for h, w := range hourWeights {
		r -= w
		if r <= 0 {
			return h
		}
	}
	return 23
}

func (g *generator) insertSale(ctx context.Context, tx *sql.Tx, at time.Time) error {
	storeID := g.stores[g.rng.Intn(len(g.stores))]
	channel := g.pickChannel()

	var customerID any
	if g.rng.Float64() > 0.3 {
		customerID = g.customers[g.rng.Intn(len(g.customers))]
	}

	lines := g.pickLines()
	var itemsTotal float64
	for _, l := range lines {
		itemsTotal += l.totalPrice
	}

	var deliveryFee float64
	if channel.typ == "D" {
		fees := []float64{5, 7, 9, 12, 15}
		deliveryFee = fees[g.rng.Intn(len(fees))]
	}

	status := "COMPLETED"
	if g.rng.Float64() < 0.05 {
		status = "CANCELLED"
	}

	discount := 0.0
	if g.rng.Float64() < 0.2 {
		discount = round2(itemsTotal * (0.05 + g.rng.Float64()*0.25))
	}
	totalAmount := round2(itemsTotal - discount + deliveryFee)

	var productionSec, deliverySec, reason any
	if status == "COMPLETED" {
		productionSec = 300 + g.rng.Intn(2100)
		if channel.typ == "D" {
			deliverySec = 600 + g.rng.Intn(3000)
		}
	} else {
		reason = cancellationReasons[g.rng.Intn(len(cancellationReasons))]
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales (
			store_id, channel_id, customer_id, sale_status_desc,
			total_amount, delivery_fee, production_seconds, delivery_seconds,
			cancellation_reason, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		storeID, channel.id, customerID, status,
		totalAmount, deliveryFee, productionSec, deliverySec, reason, at)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	saleID, _ := res.LastInsertId()

	for _, l := range lines {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO product_sales (sale_id, product_id, quantity, base_price, cost_price, total_price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			saleID, l.product.id, l.quantity, l.product.basePrice, l.product.costPrice, l.totalPrice)
		if err != nil {
			return fmt.Errorf("insert product sale: %w", err)
		}
		psID, _ := res.LastInsertId()

		for _, it := range l.items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO item_product_sales (product_sale_id, item_id, quantity, additional_price)
				VALUES (?, ?, ?, ?)`,
				psID, it.id, 1, it.price); err != nil {
				return fmt.Errorf("insert item sale: %w", err)
			}
		}
	}

	if channel.typ == "D" && status == "COMPLETED" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO delivery_sales (sale_id, courier_type, delivery_fee, courier_fee)
			VALUES (?, ?, ?, ?)`,
			saleID, courierTypes[g.rng.Intn(len(courierTypes))],
			deliveryFee, round2(deliveryFee*0.6)); err != nil {
			return fmt.Errorf("insert delivery sale: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO delivery_addresses (sale_id, neighborhood, city)
			VALUES (?, ?, ?)`,
			saleID,
			neighborhoods[g.rng.Intn(len(neighborhoods))],
			cities[g.rng.Intn(len(cities))]); err != nil {
			return fmt.Errorf("insert delivery address: %w", err)
		}
	}
	return nil
}

type saleLine struct {
	product    productSeed
	quantity   int
	items      []itemSeed
	totalPrice float64
}

func (g *generator) pickLines() []saleLine {
	n := 1 + g.rng.Intn(3)
	lines := make([]saleLine, 0, n)
	for i := 0; i < n; i++ {
		p := g.pickProduct()
		qty := 1 + g.rng.Intn(3)

		var picked []itemSeed
		var extras float64
		if p.hasItems && g.rng.Float64() > 0.4 {
			for j := 0; j < 1+g.rng.Intn(3); j++ {
				it := g.items[g.rng.Intn(len(g.items))]
				picked = append(picked, it)
				extras += it.price
			}
		}
		lines = append(lines, saleLine{
			product:    p,
			quantity:   qty,
			items:      picked,
			totalPrice: round2((p.basePrice + extras) * float64(qty)),
		})
	}
	return lines
}

func (g *generator) pickProduct() productSeed {
	var total float64
	for _, p := range g.products {
		total += p.popularity
	}
	r := g.rng.Float64() * total
	for _, p := range g.products {
		r -= p.popularity
		if r <= 0 {
			return p
		}
	}
	return g.products[len(g.products)-1]
}

func (g *generator) pickChannel() channelSeed {
	var total float64
	for _, c := range g.channels {
		total += c.weight
	}
	r := g.rng.Float64() * total
	for _, c := range g.channels {
		r -= c.weight
		if r <= 0 {
			return c
		}
	}
	return g.channels[len(g.channels)-1]
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scenario loads lot-sizing configurations from YAML, JSON or TOML files.
//
// Two scenarios are embedded: "base" and "extended". Scalar settings can be overridden
// from the environment with the CRATEPLAN_ prefix, e.g.
// CRATEPLAN_OPERATING_RESTOCK_TRUCK_MAX=2 or CRATEPLAN_HOLDING_RATE=0.25.
package scenario

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	log "github.com/golang/glog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/crateplan/crateplan/planning/go/lotsizing"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CRATEPLAN"

//go:embed data/*.yaml
var builtin embed.FS

// ErrUnknownScenario is returned by LoadBuiltin for names that are not embedded.
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is a loaded configuration together with the profile it asks for.
type Scenario struct {
	Config  *lotsizing.Config
	Profile lotsizing.Profile
	// Source is the file path or the builtin name the scenario was read from.
	Source string

	// unpriced holds the products that lack a purchase or a selling price.
	unpriced map[lotsizing.ProductID]bool
}

// CheckProfile reports an error wrapping lotsizing.ErrInvalidConfig when the scenario
// lacks the economics `profile` needs: both prices for the price objective, a margin or
// both prices for the margin objective. Explicit zero prices are accepted.
func (sc *Scenario) CheckProfile(profile lotsizing.Profile) error {
	for _, p := range sc.Config.Products {
		if !sc.unpriced[p.ID] {
			continue
		}
		switch {
		case profile.Objective == lotsizing.PriceObjective:
			return fmt.Errorf("scenario %s: product %s: profile %s needs purchase_price and selling_price: %w",
				sc.Source, p.ID, profile.Name, lotsizing.ErrInvalidConfig)
		case profile.Objective == lotsizing.MarginObjective && !p.Margin.Valid:
			return fmt.Errorf("scenario %s: product %s: profile %s needs a margin or both prices: %w",
				sc.Source, p.ID, profile.Name, lotsizing.ErrInvalidConfig)
		}
	}
	if err := sc.Config.Validate(profile); err != nil {
		return fmt.Errorf("scenario %s: %w", sc.Source, err)
	}
	return nil
}

type productFile struct {
	ID            string  `mapstructure:"id"`
	PurchasePrice string  `mapstructure:"purchase_price"`
	SellingPrice  string  `mapstructure:"selling_price"`
	Margin        string  `mapstructure:"margin"`
	CrateCapacity int64   `mapstructure:"crate_capacity"`
	Demand        []int64 `mapstructure:"demand"`
}

// Builtins returns the names of the embedded scenarios.
func Builtins() []string {
	entries, err := builtin.ReadDir("data")
	if err != nil {
		log.Fatalf("embedded scenarios are unreadable: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadBuiltin loads an embedded scenario by name.
func LoadBuiltin(name string) (*Scenario, error) {
	data, err := builtin.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%q (want one of %v): %w", name, Builtins(), ErrUnknownScenario)
	}
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("reading builtin scenario %s: %w", name, err)
	}
	return decode(v, name)
}

// Load loads a scenario file. The format follows the file extension.
func Load(file string) (*Scenario, error) {
	v := newViper()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", file, err)
	}
	return decode(v, file)
}

// Open loads the builtin scenario `nameOrFile` if there is one, and the file otherwise.
func Open(nameOrFile string) (*Scenario, error) {
	for _, name := range Builtins() {
		if name == nameOrFile {
			return LoadBuiltin(name)
		}
	}
	return Load(nameOrFile)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("operating.restock_truck_max", -1)
	return v
}

func decode(v *viper.Viper, source string) (*Scenario, error) {
	fail := func(format string, a ...any) (*Scenario, error) {
		return nil, fmt.Errorf("scenario %s: %s: %w", source, fmt.Sprintf(format, a...), lotsizing.ErrInvalidConfig)
	}

	var products []productFile
	if err := v.UnmarshalKey("products", &products); err != nil {
		return fail("products: %v", err)
	}
	if len(products) == 0 {
		return fail("no products")
	}

	cfg := &lotsizing.Config{
		Name:    v.GetString("name"),
		Horizon: v.GetInt("horizon"),
		Demand:  make(map[lotsizing.ProductID][]int64, len(products)),
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(path.Base(source), path.Ext(source))
	}
	if cfg.Horizon == 0 {
		cfg.Horizon = len(products[0].Demand)
	}

	sc := &Scenario{Config: cfg, Source: source, unpriced: make(map[lotsizing.ProductID]bool)}
	var err error
	if cfg.HoldingRate, err = parseMoney(v.GetString("holding_rate")); err != nil {
		return fail("holding_rate: %v", err)
	}
	op := &cfg.Operating
	for key, dst := range map[string]*decimal.Decimal{
		"operating.restock_truck_cost": &op.RestockTruckCost,
		"operating.delivery_trip_cost": &op.DeliveryTripCost,
		"operating.annual_labor_cost":  &op.AnnualLaborCost,
	} {
		if *dst, err = parseMoney(v.GetString(key)); err != nil {
			return fail("%s: %v", key, err)
		}
	}
	op.StorageCapacityCrates = v.GetFloat64("operating.storage_capacity_crates")
	op.RestockTruckCapacityCrates = v.GetFloat64("operating.restock_truck_capacity_crates")
	op.DeliveryTruckCapacityCrates = v.GetFloat64("operating.delivery_truck_capacity_crates")
	op.RestockTruckMax = v.GetInt64("operating.restock_truck_max")

	for i, pf := range products {
		p := lotsizing.Product{ID: lotsizing.ProductID(pf.ID), CrateCapacity: pf.CrateCapacity}
		if p.PurchasePrice, err = parseMoney(pf.PurchasePrice); err != nil {
			return fail("products[%d].purchase_price: %v", i, err)
		}
		if p.SellingPrice, err = parseMoney(pf.SellingPrice); err != nil {
			return fail("products[%d].selling_price: %v", i, err)
		}
		if pf.PurchasePrice == "" || pf.SellingPrice == "" {
			sc.unpriced[p.ID] = true
		}
		if pf.Margin != "" {
			m, err := decimal.NewFromString(pf.Margin)
			if err != nil {
				return fail("products[%d].margin: %v", i, err)
			}
			p.Margin = decimal.NewNullDecimal(m)
		}
		if _, dup := cfg.Demand[p.ID]; dup {
			return fail("product %s declared twice", p.ID)
		}
		cfg.Products = append(cfg.Products, p)
		cfg.Demand[p.ID] = pf.Demand
	}

	profileName := v.GetString("profile")
	if profileName == "" {
		profileName = cfg.Name
	}
	if sc.Profile, err = lotsizing.ProfileByName(profileName); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", source, err)
	}
	if err := sc.CheckProfile(sc.Profile); err != nil {
		return nil, err
	}
	log.V(1).Infof("scenario: loaded %s (%d products, %d periods, profile %s)", source, len(cfg.Products), cfg.Horizon, sc.Profile.Name)
	return sc, nil
}

// parseMoney parses a decimal amount. An empty string is zero; callers that need to tell a
// missing amount from a zero one check the string first.
func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Package taxi is the worked exploration pipeline over the NYC TLC trip and
// fare datasets: ingest the two delimited files, join them on the
// (medallion, hack_license, pickup_datetime) composite key, discard outlier
// rows, derive the traffic-time bucket and tipped flag, draw two exploratory
// charts from a small sample, and write a down-sampled extract as sharded
// parquet.
package taxi

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcloughlin/geohash"
	"github.com/pkg/errors"

	"github.com/tripline/tripline"
	"github.com/tripline/tripline/aws/s3"
	"github.com/tripline/tripline/cache"
	"github.com/tripline/tripline/chart"
	"github.com/tripline/tripline/csv"
	"github.com/tripline/tripline/engine"
	"github.com/tripline/tripline/file"
	"github.com/tripline/tripline/frame"
	"github.com/tripline/tripline/kafka"
	"github.com/tripline/tripline/parquet"
	"github.com/tripline/tripline/progress"
)

// Column names of the extract written to parquet.
var extractColumns = []string{
	"payment_type",
	"pickup_hour",
	"fare_amount",
	"tip_amount",
	"passenger_count",
	"trip_distance",
	"trip_time_in_secs",
	"TrafficTimeBins",
	"tipped",
}

var joinKeys = []string{"medallion", "hack_license", "pickup_datetime"}

const cacheName = "trip_fare_featured"

// Main holds the configuration for the taxi exploration pipeline.
type Main struct {
	BaseDir  string `help:"Base data directory. A local path or s3://bucket/prefix."`
	TripFile string `help:"Trip data file or subdirectory under the base dir."`
	FareFile string `help:"Fare data file or subdirectory under the base dir."`
	Region   string `help:"AWS region, for s3:// base dirs."`

	KafkaHosts []string `help:"Kafka host:port pairs. When set, trips and fares are consumed from topics instead of files."`
	TripTopic  string   `help:"Kafka topic carrying trip CSV lines."`
	FareTopic  string   `help:"Kafka topic carrying fare CSV lines."`
	Group      string   `help:"Kafka consumer group."`
	MaxMsgs    int      `help:"Stop each topic after this many messages. 0 reads to end of stream."`

	Workers        int    `help:"Engine worker count. 0 means one per CPU."`
	WorkerMemoryMB int    `help:"Engine memory budget per worker in MB."`
	SpillDir       string `help:"Directory for disk-level table caching."`
	Strict         bool   `help:"Fail on unparseable cells instead of coercing them to null."`

	PlotFraction    float64 `help:"Sample fraction materialized locally for the charts."`
	ExtractFraction float64 `help:"Sample fraction written out for modeling."`
	Seed            int64   `help:"Random seed for both samples."`
	Shards          int     `help:"Shard count for the parquet extract."`
	OutputDir       string  `help:"Directory for the parquet extract."`
	WriteMode       string  `help:"overwrite, append, or error-if-exists."`
	PlotPath        string  `help:"PNG path for the two exploratory charts."`
	BinWidth        float64 `help:"Fare histogram bin width in dollars."`
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		TripFile:        "trip_data.csv",
		FareFile:        "trip_fare.csv",
		Region:          "us-east-1",
		TripTopic:       "trip-data",
		FareTopic:       "trip-fare",
		Group:           "tripline",
		PlotFraction:    0.0001,
		ExtractFraction: 0.1,
		Seed:            123,
		Shards:          10,
		OutputDir:       "taxi_extract",
		WriteMode:       "overwrite",
		PlotPath:        "taxi_plots.png",
		BinWidth:        5,
	}
}

// Run executes the pipeline. The engine session is released on every exit
// path; all errors abort the run.
func (m *Main) Run() error {
	mode, err := parquet.ParseMode(m.WriteMode)
	if err != nil {
		return errors.Wrap(err, "parsing write mode")
	}

	sess, err := engine.Open(engine.Config{
		Workers:        m.Workers,
		WorkerMemoryMB: m.WorkerMemoryMB,
		SpillDir:       m.SpillDir,
	})
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	defer sess.Close()

	rep := progress.NewReporter(os.Stderr)
	defer rep.Stop()

	trips, err := m.readTable(m.TripFile, m.TripTopic)
	if err != nil {
		return errors.Wrap(err, "reading trip data")
	}
	rep.Count("trips", int64(trips.NumRows()))
	log.Printf("trip schema: %v", trips.Schema())
	log.Printf("trip head:\n%s", trips.Head(5))

	fares, err := m.readTable(m.FareFile, m.FareTopic)
	if err != nil {
		return errors.Wrap(err, "reading fare data")
	}
	rep.Count("fares", int64(fares.NumRows()))
	log.Printf("fare schema: %v", fares.Schema())
	log.Printf("fare head:\n%s", fares.Head(5))

	joined, err := frame.Join(trips, fares, joinKeys, frame.JoinOptions{})
	if err != nil {
		return errors.Wrap(err, "joining trips and fares")
	}
	filtered, err := frame.Filter(joined, outlierFilter(), sess.Workers())
	if err != nil {
		return errors.Wrap(err, "filtering joined table")
	}
	rep.Count("joined", int64(filtered.NumRows()))

	featured, err := deriveFeatures(filtered)
	if err != nil {
		return errors.Wrap(err, "deriving feature columns")
	}

	store, err := sess.Cache()
	if err != nil {
		return errors.Wrap(err, "getting cache store")
	}
	if err := store.Persist(cacheName, featured, cache.Memory); err != nil {
		return errors.Wrap(err, "caching featured table")
	}

	if err := m.renderCharts(store); err != nil {
		return errors.Wrap(err, "rendering charts")
	}

	cached, ok, err := store.Get(cacheName)
	if err != nil || !ok {
		return errors.Wrap(err, "rereading cached table")
	}
	extract, err := frame.Sample(cached, m.ExtractFraction, m.Seed)
	if err != nil {
		return errors.Wrap(err, "sampling extract")
	}
	selected, err := extract.Select(extractColumns...)
	if err != nil {
		return errors.Wrap(err, "selecting extract columns")
	}
	parts, err := frame.Partitions(selected, m.Shards)
	if err != nil {
		return errors.Wrap(err, "repartitioning extract")
	}
	if err := parquet.Write(parts, m.OutputDir, mode, sess.Allocator(), sess.Workers()); err != nil {
		return errors.Wrap(err, "writing extract")
	}
	rows, shards, err := parquet.Count(m.OutputDir)
	if err != nil {
		return errors.Wrap(err, "counting extract")
	}
	rep.Count("extracted", rows)
	log.Printf("wrote %d rows across %d shards to %s", rows, shards, m.OutputDir)

	if err := store.Unpersist(cacheName); err != nil {
		return errors.Wrap(err, "releasing cached table")
	}
	return sess.Close()
}

// readTable builds the raw source for one dataset and ingests it. Kafka
// hosts take precedence over the base dir when configured.
func (m *Main) readTable(fileName, topic string) (*frame.Frame, error) {
	var rs tripline.RawSource
	switch {
	case len(m.KafkaHosts) > 0:
		src := kafka.NewSource()
		src.Hosts = m.KafkaHosts
		src.Topics = []string{topic}
		src.Group = m.Group
		src.MaxMsgs = m.MaxMsgs
		if err := src.Open(); err != nil {
			return nil, errors.Wrap(err, "opening kafka source")
		}
		rs = kafka.NewRawSource(src, topic)
	case strings.HasPrefix(m.BaseDir, "s3://"):
		bucket, prefix, err := s3.ParsePath(m.BaseDir)
		if err != nil {
			return nil, err
		}
		rs, err = s3.NewRawSource(m.Region, bucket, s3Key(prefix, fileName))
		if err != nil {
			return nil, errors.Wrap(err, "getting s3 source")
		}
	default:
		var err error
		rs, err = file.NewRawSource(filepath.Join(m.BaseDir, fileName))
		if err != nil {
			return nil, errors.Wrap(err, "getting file source")
		}
	}
	return csv.ReadFrame(rs, csv.Options{InferSchema: true, Strict: m.Strict})
}

func s3Key(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

// outlierFilter is the conjunction of range and enumeration checks applied
// to the joined table. Every output row satisfies all of them at once; no
// rows are deduplicated.
func outlierFilter() frame.Predicate {
	return frame.All(
		frame.IntBetween("passenger_count", 0, 8, false, false),
		frame.FloatBetween("tip_amount", 0, 15, true, true),
		frame.FloatBetween("fare_amount", 1, 150, true, true),
		frame.FloatLess("tip_amount", "fare_amount"),
		frame.FloatBetween("trip_distance", 0, 40, false, true),
		frame.IntBetween("trip_time_in_secs", 30, 7200, true, true),
		frame.IntAtMost("rate_code", 5),
		frame.StrIn("payment_type", "CSH", "CRD"),
	)
}

// trafficTimeBins are evaluated in order, first match wins. Together the
// four buckets cover every hour of the day.
func trafficTimeBins() []frame.When {
	return []frame.When{
		{Pred: frame.Any(
			frame.IntAtMost("pickup_hour", 6),
			frame.IntAtLeast("pickup_hour", 20),
		), Label: "Night"},
		{Pred: frame.IntBetween("pickup_hour", 7, 10, true, true), Label: "AMRush"},
		{Pred: frame.IntBetween("pickup_hour", 11, 15, true, true), Label: "Afternoon"},
		{Pred: frame.IntBetween("pickup_hour", 16, 19, true, true), Label: "PMRush"},
	}
}

// deriveFeatures appends pickup_hour, TrafficTimeBins and tipped, plus a
// pickup geohash when the trip file carries coordinates.
func deriveFeatures(f *frame.Frame) (*frame.Frame, error) {
	out, err := frame.HourOf(f, "pickup_hour", "pickup_datetime")
	if err != nil {
		return nil, err
	}
	out, err = frame.Case(out, "TrafficTimeBins", trafficTimeBins(), "Unmatched")
	if err != nil {
		return nil, err
	}
	out, err = frame.Flag(out, "tipped", frame.FloatAbove("tip_amount", 0))
	if err != nil {
		return nil, err
	}
	coords := []string{"pickup_latitude", "pickup_longitude"}
	if out.Has(coords...) {
		out, err = frame.DeriveString(out, "pickup_geohash", coords, func(r frame.Row) (string, bool) {
			lat, ok := r.Float("pickup_latitude")
			if !ok {
				return "", false
			}
			lng, ok := r.Float("pickup_longitude")
			if !ok {
				return "", false
			}
			return geohash.EncodeWithPrecision(lat, lng, 6), true
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// renderCharts materializes the plot sample locally and draws the fare
// histogram and fare/tip scatter from the same rows.
func (m *Main) renderCharts(store *cache.Store) error {
	cached, ok, err := store.Get(cacheName)
	if err != nil || !ok {
		return errors.Wrap(err, "reading cached table")
	}
	sample, err := frame.Sample(cached, m.PlotFraction, m.Seed)
	if err != nil {
		return errors.Wrap(err, "sampling for charts")
	}
	fares := make([]float64, 0, sample.NumRows())
	tips := make([]float64, 0, sample.NumRows())
	for i := 0; i < sample.NumRows(); i++ {
		r := sample.Row(i)
		fare, ok := r.Float("fare_amount")
		if !ok {
			continue
		}
		tip, ok := r.Float("tip_amount")
		if !ok {
			continue
		}
		fares = append(fares, fare)
		tips = append(tips, tip)
	}
	pair := chart.Pair{
		HistTitle:    "Fare amount",
		HistXLabel:   "fare ($)",
		BinWidth:     m.BinWidth,
		ScatterTitle: "Tip vs fare",
		ScatterX:     "fare ($)",
		ScatterY:     "tip ($)",
	}
	return pair.Render(m.PlotPath, fares, fares, tips)
}

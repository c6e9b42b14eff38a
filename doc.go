// tripline is a toolkit for exploring the NYC taxi trip and fare datasets
// with a small in-process columnar engine.
//
// The principal thing in tripline is the exploration pipeline. Interfaces and
// basic implementations of each stage listed below are included at the root
// and in sub-packages, and the full worked pipeline lives in usecase/taxi.
//
// 1. Raw sources
//
//    A tripline.RawSource hands out readers for delimited data wherever it
//    lives - local files and directories (package file), S3 buckets (package
//    aws/s3), or Kafka topics carrying CSV lines (package kafka). A raw
//    source does not interpret the bytes in any way; that job falls to the
//    csv package, which is the next stage. The reason for the separation is
//    that the same delimited data shows up in many places, and fetching it
//    has different concurrency and failure properties than parsing it.
//
// 2. Ingestion
//
//    Package csv turns raw readers into frame.Frame tables. It validates the
//    header row, infers a schema by attempted conversion when asked to (or
//    takes an explicit one), and either fails hard on unparseable cells or
//    coerces them to null, depending on whether strict typing was requested.
//
// 3. The engine
//
//    Package engine owns the session: a scoped allocation of workers, memory
//    and the table cache, acquired with Open and released with Close on
//    every exit path. Package frame is the data plane - an immutable
//    columnar table with equi-join, predicate filtering, derived columns,
//    seeded sampling and repartitioning. Heavy operations parallelize across
//    the session's workers; orchestration code stays single threaded.
//
// 4. Outputs
//
//    Package parquet writes a frame out as a fixed number of columnar shard
//    files. Package chart renders exploratory plots from locally
//    materialized rows. Package cache persists intermediate tables in
//    memory, or Avro-encoded on disk, so downstream stages can reread them
//    without recomputation.

package tripline

/*Package interval implements the coordinate model shared by the evidence,
  partitioning and scoring stages: 1-based closed intervals, alignment records
  built from them, small-gap merging, intron derivation, and window retrieval
  over per-chromosome interval trees.

  All positions are 1-based and both ends are closed, matching the GTF/GFF3
  text formats the pipeline reads and writes.
*/
package interval

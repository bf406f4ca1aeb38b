/*Package interval resolves region strings into closed genomic windows and
  loads interval-unions from BED files.

  A Window is the unit of processing for everything downstream: every dataset,
  layout plan and report is scoped to exactly one Window, and nothing is carried
  from one Window to the next.

  BEDUnion keeps the union of the loaded intervals.  Overlapping intervals are
  merged, not tracked separately, and every position is assumed to fit in a
  PosType.
*/
package interval

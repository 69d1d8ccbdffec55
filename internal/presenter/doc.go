// Package presenter shows review results to a human and collects the
// force-or-cancel decision.
//
// [Terminal] is the interactive presenter used by "reviewgate serve" and
// by inline hook runs. [Policy] answers without asking, which suits CI and
// unattended responders.
package presenter

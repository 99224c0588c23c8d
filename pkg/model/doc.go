// Package model defines the declarative field schema consumed by the
// visibility resolver, the validation engine and the component builder.
// A Field is a recursive node: radio and checkbox options carry their own
// SubFields, which are only live while the owning option is selected. The
// effective path of a sub-field is always "<parent>.<child>" and doubles as
// the error-map key and the answer lookup key.
//
// Values that may be literal or computed (required flags, labels, previous
// steps) are modelled with Dynamic, whose Resolve method is the single place
// where panicking user functions are recovered.
package model

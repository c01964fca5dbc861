// Package domain defines the core business entities of the helpdesk
// tracker: tickets, recurring templates, and the generation audit trail.
// Entities validate themselves via constructors and Validate methods;
// persistence concerns live in the store and platform packages.
package domain

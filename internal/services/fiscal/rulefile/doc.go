// Package rulefile reads and writes rule definitions authored outside the
// service: HCL rule sets and JSON decision graphs.
//
// A rule set file holds rule blocks:
//
//	rule "Impôt sur les sociétés" {
//	  order = 10
//
//	  when {
//	    field    = "categorieFiscale"
//	    operator = "equals"
//	    value    = "IS"
//	  }
//
//	  branch {
//	    task "Acompte IS n°1" {
//	      category = "IS"
//	      form     = "2571-SD"
//	      date {
//	        type    = "is_acompte_cloture_period"
//	        acompte = 1
//	      }
//	    }
//	  }
//	}
//
// Rules are active unless they set active = false. A cloture_conditional
// date holds date_a and date_b blocks with the same attributes as date.
package rulefile
